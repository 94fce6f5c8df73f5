package main

// Upload a file and wait for extraction:
//   go run ./cmd/uploader -file invoice.pdf -user local-dev

import (
	"context"
	"flag"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"docvault-backend/internal/uploadclient"
)

func main() {
	filePath := flag.String("file", "", "Path to the file to upload (pdf, jpeg, or png)")
	docType := flag.String("type", "", "Document type hint (INVOICE, RECEIPT, CONTRACT, FORM, ID, OTHER)")
	apiURL := flag.String("api", "http://localhost:8080/api/v1", "API base URL")
	userID := flag.String("user", "", "User ID for mock-auth dev servers")
	token := flag.String("token", "", "Session token for jwt-auth servers")
	maxWait := flag.Duration("max-wait", 5*time.Minute, "Maximum time to wait for a terminal status")
	flag.Parse()

	if strings.TrimSpace(*filePath) == "" {
		exitErr("file path is required")
	}
	if *userID == "" && *token == "" {
		exitErr("either -user or -token is required")
	}

	contentType := mime.TypeByExtension(filepath.Ext(*filePath))
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = contentType[:idx]
	}

	f, err := os.Open(*filePath)
	if err != nil {
		exitErr(fmt.Sprintf("open file: %v", err))
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		exitErr(fmt.Sprintf("stat file: %v", err))
	}

	client := &uploadclient.Client{
		BaseURL:      strings.TrimRight(*apiURL, "/"),
		MockUserID:   *userID,
		SessionToken: *token,
		MaxWait:      *maxWait,
		OnProgress: func(percent int) {
			fmt.Printf("progress: %d%%\n", percent)
		},
	}

	info := uploadclient.FileInfo{
		Name:         filepath.Base(*filePath),
		ContentType:  contentType,
		Size:         stat.Size(),
		DocumentType: strings.ToUpper(strings.TrimSpace(*docType)),
	}

	doc, err := client.UploadAndProcess(context.Background(), info, f)
	if err != nil {
		exitErr(err.Error())
	}

	fmt.Printf("document %s finished with status %s\n", doc.ID, doc.Status)
	if doc.ExtractionResult != nil {
		if doc.ExtractionResult.Summary != "" {
			fmt.Printf("summary: %s\n", doc.ExtractionResult.Summary)
		}
		for key, value := range doc.ExtractionResult.KeyValuePairs {
			fmt.Printf("  %s = %s\n", key, value)
		}
	}
}

func exitErr(msg string) {
	fmt.Fprintln(os.Stderr, "error:", msg)
	os.Exit(1)
}
