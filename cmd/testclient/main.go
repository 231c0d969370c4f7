package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/stayware/tolk/pkg/translation"
)

var (
	serverAddr = flag.String("addr", "http://localhost:8000", "Translation server base URL")
	sourceLang = flag.String("source", "en", "Source language code (e.g., en, fr)")
	targetLang = flag.String("target", "fr", "Target language code (e.g., en, fr)")
	domain     = flag.String("domain", "", "Adapter domain (defaults to the server's domain)")
	quality    = flag.String("quality", "balanced", "Quality preference: fast, balanced or accurate")
	textFile   = flag.String("file", "", "Path to text file to translate")
	text       = flag.String("text", "", "Text to translate (if file not provided)")
	noCache    = flag.Bool("no-cache", false, "Bypass the result cache")
)

func main() {
	flag.Parse()

	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)

	// Read text to translate
	var textToTranslate string
	if *textFile != "" {
		// Read from file
		data, err := os.ReadFile(*textFile)
		if err != nil {
			logger.WithError(err).Fatalf("Failed to read file: %s", *textFile)
		}
		textToTranslate = string(data)
	} else if *text != "" {
		textToTranslate = *text
	} else {
		logger.Fatal("Either -file or -text must be provided")
	}

	if textToTranslate == "" {
		logger.Fatal("Text to translate is empty")
	}

	logger.WithFields(logrus.Fields{
		"server":      *serverAddr,
		"source_lang": *sourceLang,
		"target_lang": *targetLang,
		"quality":     *quality,
		"text_length": len(textToTranslate),
	}).Info("Sending translation request...")

	req := translation.Request{
		Text:    textToTranslate,
		Source:  *sourceLang,
		Target:  *targetLang,
		Domain:  *domain,
		Quality: translation.Preference(*quality),
	}
	if *noCache {
		useCache := false
		req.UseCache = &useCache
	}

	payload, err := json.Marshal(req)
	if err != nil {
		logger.WithError(err).Fatal("Failed to encode request")
	}

	client := &http.Client{Timeout: 2 * time.Minute}
	startTime := time.Now()

	resp, err := client.Post(*serverAddr+"/translate", "application/json", bytes.NewReader(payload))
	if err != nil {
		logger.WithError(err).Fatal("Failed to reach translation server")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.WithError(err).Fatal("Failed to read response")
	}

	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Detail string `json:"detail"`
		}
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Detail != "" {
			logger.WithFields(logrus.Fields{
				"status": resp.StatusCode,
				"detail": errResp.Detail,
			}).Fatal("Translation was not successful")
		}
		logger.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"body":   string(body),
		}).Fatal("Translation was not successful")
	}

	var result translation.Result
	if err := json.Unmarshal(body, &result); err != nil {
		logger.WithError(err).Fatal("Failed to decode translation result")
	}

	duration := time.Since(startTime)

	// Output results
	separator := strings.Repeat("=", 80)
	dashLine := strings.Repeat("-", 80)

	fmt.Println()
	fmt.Println(separator)
	fmt.Println("TRANSLATION RESULTS")
	fmt.Println(separator)
	fmt.Printf("\nSource Language: %s\n", result.Source)
	fmt.Printf("Target Language: %s\n", result.Target)
	fmt.Printf("Method: %s\n", result.Method)
	fmt.Printf("Model Version: %s\n", result.ModelVersion)
	fmt.Printf("Quality Score: %.2f\n", result.QualityScore)
	fmt.Printf("Served From Cache: %v\n", result.Cached)
	fmt.Printf("Round Trip: %.2f seconds\n", duration.Seconds())
	fmt.Println()
	fmt.Println(dashLine)
	fmt.Println("ORIGINAL TEXT:")
	fmt.Println(dashLine)
	fmt.Println(textToTranslate)
	fmt.Println()
	fmt.Println(dashLine)
	fmt.Println("TRANSLATED TEXT:")
	fmt.Println(dashLine)
	fmt.Println(result.TranslatedText)
	fmt.Println()
	fmt.Println(separator)

	logger.WithFields(logrus.Fields{
		"duration_seconds": duration.Seconds(),
		"cached":           result.Cached,
	}).Info("Translation completed successfully")
}
