package main

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/joho/godotenv"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/atlas-hr/traceflow/db"
)

func main() {
	// load env variables; a missing .env file is fine in production where the
	// environment is injected directly
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file loaded:", err)
	}

	if logDir := os.Getenv("LOG_DIR"); logDir != "" {
		log.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   logDir + "/traceflow.log",
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
		}))
	}

	// db initialization
	postgresDB, err := db.ConnectPostgres(db.PostgresConfigFromEnv())
	if err != nil {
		log.Fatal(err)
	}
	defer postgresDB.Close()

	// geoip is enrichment only; a nil reader means location stays Unknown
	geoipDB, err := db.OpenGeoIP(os.Getenv("GEOIP_DB_PATH"))
	if err != nil {
		log.Fatal(err)
	}
	if geoipDB == nil {
		log.Println("GeoIP database not found, location enrichment disabled")
	} else {
		defer geoipDB.Close()
	}

	// router
	router := SetupRouter(postgresDB, geoipDB)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	address := fmt.Sprintf(":%s", port)

	log.Printf("Server is listening on port %s...\n", port)

	err = http.ListenAndServe(address, handlers.CORS( // cors config
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)(router))
	if err != nil {
		log.Fatalf("Failed to start server: %v\n", err)
	}
}
