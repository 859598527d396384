package aiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClient_AnalyzeImagesAndDescribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/vision":
			var body struct {
				ImageA string `json:"image_a"`
				ImageB string `json:"image_b"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("decode vision request: %v", err)
			}
			if body.ImageA == "" || body.ImageB == "" {
				t.Fatal("expected both images base64-encoded in request")
			}
			_ = json.NewEncoder(w).Encode(VisionResult{
				PersonDetected: true,
				Confidence:     0.92,
				Objects:        []string{"person", "bicycle"},
			})
		case "/describe":
			_ = json.NewEncoder(w).Encode(TextResult{
				Phrase:      "Person with bicycle near the gate",
				Description: "A person wheeling a bicycle past the side gate at dusk.",
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := New(srv.URL, 2*time.Second)

	vision, err := client.AnalyzeImages(context.Background(), []byte("a"), []byte("b"))
	if err != nil {
		t.Fatalf("AnalyzeImages: %v", err)
	}
	if !vision.PersonDetected || len(vision.Objects) != 2 {
		t.Fatalf("unexpected vision result: %+v", vision)
	}

	text, err := client.Describe(context.Background(), vision)
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if text.Phrase == "" || text.Description == "" {
		t.Fatalf("unexpected text result: %+v", text)
	}
}

func TestClient_NonOKStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("model host overloaded"))
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second)
	if _, err := client.AnalyzeImages(context.Background(), []byte("a"), []byte("b")); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}
