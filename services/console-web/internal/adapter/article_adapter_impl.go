package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/admVeloHub/Console-v2-gcp/pkg/logger"
)

type articleAdapterImpl struct {
	gatewayURL string
	http       *http.Client
	log        *logger.Logger
}

func NewArticleAdapter(gatewayURL string, log *logger.Logger) ArticleAdapter {
	return &articleAdapterImpl{
		gatewayURL: gatewayURL,
		http:       &http.Client{Timeout: 30 * time.Second},
		log:        log.With("component", "article-adapter"),
	}
}

func (a *articleAdapterImpl) Save(ctx context.Context, accessToken, articleID string, payload ArticlePayload) (*SavedArticle, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	method, url := http.MethodPost, a.gatewayURL+"/v1/articles"
	if articleID != "" {
		method, url = http.MethodPut, url+"/"+articleID
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to save article: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errMsg struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(raw, &errMsg)
		if errMsg.Error == "" {
			errMsg.Error = http.StatusText(resp.StatusCode)
		}
		return nil, &GatewayError{Status: resp.StatusCode, Message: errMsg.Error}
	}
	var saved SavedArticle
	if err := json.Unmarshal(raw, &saved); err != nil {
		return nil, fmt.Errorf("failed to parse gateway response: %w", err)
	}
	a.log.With("article_id", saved.ID).Info("article saved")
	return &saved, nil
}
