package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pfrederiksen/clubot/internal/agenda"
	"github.com/pfrederiksen/clubot/internal/crypto"
)

const timeout = 15 * time.Second

var gistAPIURL = "https://api.github.com/gists"

// GistStorage keeps activity documents as files of a GitHub Gist
type GistStorage struct {
	gistID      string
	githubToken string
	httpClient  *http.Client
	encryptor   *crypto.Encryptor
}

// NewGistStorage creates a Gist-backed storage. When encryptionKey is set,
// documents are sealed before upload.
func NewGistStorage(gistID, githubToken, encryptionKey string) (*GistStorage, error) {
	if gistID == "" {
		return nil, fmt.Errorf("gist ID is required")
	}
	if githubToken == "" {
		return nil, fmt.Errorf("GitHub token is required")
	}

	return &GistStorage{
		gistID:      gistID,
		githubToken: githubToken,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		encryptor: crypto.NewEncryptor(encryptionKey),
	}, nil
}

// Load implements Backend
func (g *GistStorage) Load(ctx context.Context, activity string) (*agenda.Store, error) {
	return g.load(ctx, documentName(activity, false))
}

// Save implements Backend
func (g *GistStorage) Save(ctx context.Context, activity string, store *agenda.Store) error {
	return g.save(ctx, documentName(activity, false), store)
}

// AppendArchive implements Backend
func (g *GistStorage) AppendArchive(ctx context.Context, activity string, archived *agenda.Store) error {
	if archived == nil || archived.Len() == 0 {
		return nil
	}

	name := documentName(activity, true)
	existing, err := g.load(ctx, name)
	if err != nil {
		return fmt.Errorf("loading archive: %w", err)
	}
	existing.Merge(archived)

	return g.save(ctx, name, existing)
}

func (g *GistStorage) load(ctx context.Context, filename string) (*agenda.Store, error) {
	url := fmt.Sprintf("%s/%s", gistAPIURL, g.gistID)

	body, err := g.get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetching gist: %w", err)
	}
	defer body.Close()

	var gistResp struct {
		Files map[string]struct {
			Content   string `json:"content"`
			Truncated bool   `json:"truncated"`
			RawURL    string `json:"raw_url"`
		} `json:"files"`
	}

	if err := json.NewDecoder(body).Decode(&gistResp); err != nil {
		return nil, fmt.Errorf("decoding gist response: %w", err)
	}

	file, exists := gistResp.Files[filename]
	if !exists {
		// No history yet
		return agenda.NewStore(), nil
	}

	content := []byte(file.Content)
	if file.Truncated {
		// The API inlines at most 1 MB per file; the full text is at raw_url
		content, err = g.fetchRaw(ctx, file.RawURL)
		if err != nil {
			return nil, fmt.Errorf("fetching gist file %s: %w", filename, err)
		}
	}

	data, err := g.encryptor.Open(content)
	if err != nil && !errors.Is(err, crypto.ErrNotSealed) {
		return nil, fmt.Errorf("%w: %w", ErrStoreCorrupt, err)
	}

	store, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("gist file %s: %w", filename, err)
	}
	return store, nil
}

// get issues an authenticated GET and returns the body of a 200 response
func (g *GistStorage) get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	g.setHeaders(req)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		// Don't include response body in error to prevent information leakage
		return nil, fmt.Errorf("GitHub API error (status %d)", resp.StatusCode)
	}

	return resp.Body, nil
}

func (g *GistStorage) fetchRaw(ctx context.Context, rawURL string) ([]byte, error) {
	if rawURL == "" {
		return nil, errors.New("truncated file has no raw_url")
	}

	body, err := g.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	return io.ReadAll(body)
}

func (g *GistStorage) save(ctx context.Context, filename string, store *agenda.Store) error {
	data, err := Encode(store)
	if err != nil {
		return err
	}

	data, err = g.encryptor.Seal(data)
	if err != nil {
		return fmt.Errorf("encrypting store: %w", err)
	}

	url := fmt.Sprintf("%s/%s", gistAPIURL, g.gistID)

	payload := map[string]interface{}{
		"files": map[string]interface{}{
			filename: map[string]string{
				"content": string(data),
			},
		},
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	g.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("updating gist: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Don't include response body in error to prevent information leakage
		return fmt.Errorf("GitHub API error (status %d)", resp.StatusCode)
	}

	return nil
}

func (g *GistStorage) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", fmt.Sprintf("token %s", g.githubToken))
	req.Header.Set("Accept", "application/vnd.github.v3+json")
}
