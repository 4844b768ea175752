package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

type Options struct {
	runAddr     string
	logLevel    string
	dataBaseDSN string
	sessionTTL  time.Duration
}

func NewOptions() *Options {
	return new(Options)
}

// ParseFlags handles command line arguments
// and stores their values in the corresponding variables.
func (o *Options) ParseFlags() {
	// Load environment variables from the .env file
	loadEnvFile()

	if err := o.Parse(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

// Parse fills the options from environment variables overridden by args.
func (o *Options) Parse(args []string) error {
	fs := flag.NewFlagSet("istore", flag.ContinueOnError)

	ttl, err := time.ParseDuration(getEnvOrDefault("SESSION_TTL", "30m"))
	if err != nil {
		return fmt.Errorf("invalid SESSION_TTL: %w", err)
	}

	fs.StringVar(&o.runAddr, "a", getEnvOrDefault("RUN_ADDRESS", ":8080"), "address and port to run server")
	fs.StringVar(&o.logLevel, "l", getEnvOrDefault("LOG_LEVEL", "debug"), "log level")
	fs.StringVar(&o.dataBaseDSN, "d", getEnvOrDefault("DATABASE_URI", ""), "database connection string")
	fs.DurationVar(&o.sessionTTL, "t", ttl, "idle time after which a session and its cart are dropped")

	// parse the arguments passed to the server into registered variables
	return fs.Parse(args)
}

func (o *Options) RunAddr() string {
	return o.runAddr
}

func (o *Options) LogLevel() string {
	return o.logLevel
}

func (o *Options) DataBaseDSN() string {
	return o.dataBaseDSN
}

func (o *Options) SessionTTL() time.Duration {
	return o.sessionTTL
}

// getEnvOrDefault reads an environment variable or returns a default value if the variable is not set or is empty.
func getEnvOrDefault(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

// loadEnvFile loads environment variables from a .env file in the working
// directory or, when started from cmd/storefront, two levels up.
func loadEnvFile() {
	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	for _, envPath := range []string{
		filepath.Join(cwd, ".env"),
		filepath.Join(cwd, "..", "..", ".env"),
	} {
		if err := godotenv.Load(envPath); err == nil {
			log.Printf(".env file loaded from %s", envPath)
			return
		}
	}
	log.Printf("No .env file found, proceeding without it")
}
