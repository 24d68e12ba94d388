package gcp

import (
	"os"
	"strings"

	"google.golang.org/api/option"
)

const userAgent = "kaical-backend"

// CalendarOptionsFromEnv returns extra options for the Calendar API client.
// GOOGLE_CALENDAR_ENDPOINT points the client at an emulator or proxy.
func CalendarOptionsFromEnv() []option.ClientOption {
	opts := []option.ClientOption{option.WithUserAgent(userAgent)}
	if ep := strings.TrimSpace(os.Getenv("GOOGLE_CALENDAR_ENDPOINT")); ep != "" {
		opts = append(opts, option.WithEndpoint(ep))
	}
	return opts
}

// Project resolves the GCP project used by Vertex AI and Firebase.
func Project() string {
	for _, k := range []string{"GOOGLE_CLOUD_PROJECT", "GCP_PROJECT_ID", "FIREBASE_PROJECT_ID"} {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

func Location() string {
	if v := strings.TrimSpace(os.Getenv("GOOGLE_CLOUD_LOCATION")); v != "" {
		return v
	}
	return "us-central1"
}
