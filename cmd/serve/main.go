// Command serve runs the HTTP front end for the tamper classifier.
package main

import (
	"flag"
	"log"
	"net/http"
	"os"

	"github.com/tsawler/tampernet/model"
	"github.com/tsawler/tampernet/server"
)

func main() {
	weights := flag.String("weights", "outputs/invoice_classifier.json", "trained model checkpoint")
	flag.Parse()

	logger := log.New(os.Stdout, "", log.LstdFlags)

	classifier, err := model.LoadClassifier(*weights)
	if err != nil {
		logger.Fatalf("failed to load model: %v", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := server.New(classifier, logger)
	logger.Printf("listening on port %s", port)
	if err := http.ListenAndServe(":"+port, srv.Routes()); err != nil {
		logger.Fatalf("server stopped: %v", err)
	}
}
