package main

// The worker consumes S3 upload notifications from SQS and runs document
// processing for each referenced object.

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"docvault-backend/internal/bootstrap"
	"docvault-backend/internal/documents"
	"docvault-backend/internal/events"
	"docvault-backend/internal/shared/config"
	"docvault-backend/internal/shared/telemetry"
)

const (
	defaultRegion            = "us-east-1"
	defaultVisibilitySeconds = 300
)

func main() {
	cfg := config.Load()

	queueURL := strings.TrimSpace(cfg.SQSQueueURL)
	if queueURL == "" {
		log.Fatal("SQS_QUEUE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	region := cfg.AWSRegion
	if region == "" {
		region = defaultRegion
	}
	visibilitySeconds := envInt("SQS_VISIBILITY_TIMEOUT_SECONDS", defaultVisibilitySeconds)

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		log.Fatalf("load aws config: %v", err)
	}
	var sqsClient sqsAPI = sqs.NewFromConfig(awsCfg)

	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}

	log.Printf("worker started queue=%s visibility=%ds", queueURL, visibilitySeconds)

	for {
		select {
		case <-ctx.Done():
			log.Printf("shutdown requested")
			return
		default:
		}

		resp, err := sqsClient.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(queueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     20,
			VisibilityTimeout:   int32(visibilitySeconds),
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				return
			}
			log.Printf("receive message: %v", err)
			continue
		}

		for _, msg := range resp.Messages {
			handleMessage(ctx, app.Service, sqsClient, queueURL, msg)
		}
	}
}

type sqsAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// handleMessage decodes one SQS message and processes its upload events.
// Undecodable messages are deleted: redelivery cannot fix them. Processing
// failures leave the affected documents in FAILED, so the message is also
// considered handled and deleted.
func handleMessage(ctx context.Context, svc *documents.Service, client sqsAPI, queueURL string, msg sqstypes.Message) {
	body := aws.ToString(msg.Body)
	if strings.TrimSpace(body) == "" {
		telemetry.Error("worker.upload.empty_body", map[string]any{
			"sqs_message_id": aws.ToString(msg.MessageId),
		})
		deleteMessage(ctx, client, queueURL, msg)
		return
	}

	decoded, err := events.ParseNotification([]byte(body))
	if err != nil {
		telemetry.Error("worker.upload.decode_failed", map[string]any{
			"sqs_message_id": aws.ToString(msg.MessageId),
			"err":            err.Error(),
		})
		deleteMessage(ctx, client, queueURL, msg)
		return
	}

	batch := make([]documents.UploadEvent, 0, len(decoded))
	for _, event := range decoded {
		batch = append(batch, documents.UploadEvent{Bucket: event.Bucket, Key: event.Key})
	}

	telemetry.Info("worker.upload.received", map[string]any{
		"sqs_message_id": aws.ToString(msg.MessageId),
		"records":        len(batch),
	})
	svc.HandleUploadEvents(ctx, batch)
	deleteMessage(ctx, client, queueURL, msg)
}

func deleteMessage(ctx context.Context, client sqsAPI, queueURL string, msg sqstypes.Message) {
	receipt := aws.ToString(msg.ReceiptHandle)
	if receipt == "" {
		telemetry.Error("worker.upload.delete_failed", map[string]any{
			"sqs_message_id": aws.ToString(msg.MessageId),
			"err":            "missing receipt handle",
		})
		return
	}
	if _, err := client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(queueURL),
		ReceiptHandle: aws.String(receipt),
	}); err != nil {
		telemetry.Error("worker.upload.delete_failed", map[string]any{
			"sqs_message_id": aws.ToString(msg.MessageId),
			"err":            err.Error(),
		})
	}
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return val
}
