//go:build integration
// +build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"
)

type userInfo struct {
	ID    string
	Token string
}

func envOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func registerUser(t *testing.T, baseURL, email, password string) userInfo {
	t.Helper()

	payload := map[string]string{
		"name":     fmt.Sprintf("Test User %d", time.Now().UnixNano()),
		"email":    email,
		"password": password,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal register payload: %v", err)
	}

	resp, err := http.Post(fmt.Sprintf("%s/api/auth/register", baseURL), "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("register request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("unexpected register response status: %d, body: %s", resp.StatusCode, raw)
	}

	return decodeAuthResponse(t, resp.Body)
}

func loginUser(t *testing.T, baseURL, email, password string) userInfo {
	t.Helper()

	payload := map[string]string{
		"email":    email,
		"password": password,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal login payload: %v", err)
	}

	resp, err := http.Post(fmt.Sprintf("%s/api/auth/login", baseURL), "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("unexpected login response status: %d, body: %s", resp.StatusCode, raw)
	}

	return decodeAuthResponse(t, resp.Body)
}

func decodeAuthResponse(t *testing.T, body io.Reader) userInfo {
	t.Helper()

	var out struct {
		Success bool `json:"success"`
		Data    struct {
			Token string `json:"token"`
			User  struct {
				ID string `json:"_id"`
			} `json:"user"`
		} `json:"data"`
	}
	if err := json.NewDecoder(body).Decode(&out); err != nil {
		t.Fatalf("decode auth response failed: %v", err)
	}
	if out.Data.Token == "" {
		t.Fatal("empty token in auth response")
	}
	return userInfo{ID: out.Data.User.ID, Token: out.Data.Token}
}

func makeAuthenticatedRequest(t *testing.T, method, url, token string, payload interface{}) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("create request failed: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func validQuestionPayload() map[string]interface{} {
	return map[string]interface{}{
		"questionText":  "What is the primary neurotransmitter at the neuromuscular junction?",
		"explanation":   "Acetylcholine is released at the neuromuscular junction.",
		"options":       []string{"Acetylcholine", "Dopamine", "Serotonin", "GABA"},
		"correctAnswer": 0,
		"category":      "Basic Sciences",
		"subjects": []map[string]interface{}{
			{"name": "Physiology", "topics": []string{"Neuromuscular"}},
		},
		"difficulty": "medium",
	}
}
