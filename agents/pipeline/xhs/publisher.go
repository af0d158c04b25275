package xhs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"xhs-agent/internal/models"
	"xhs-agent/shared/config"
)

var validImageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true,
}

// Publisher submits a finished package to the browser-automation bridge,
// which drives the actual publish form.
type Publisher struct {
	bridgeURL  string
	httpClient *http.Client
}

func NewPublisher(cfg *config.PublishConfig) *Publisher {
	return &Publisher{
		bridgeURL: strings.TrimRight(cfg.BridgeURL, "/"),
		// Publishing waits on a real browser; give it time to settle.
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

// ValidatePackage enforces the publish-time policy bounds. Unlike the
// generation step, which truncates, a package that is still out of bounds
// here is rejected.
func ValidatePackage(pkg *models.ContentPackage) error {
	if pkg.Title == "" {
		return &models.ValidationError{Field: "title", Message: "标题不能为空"}
	}
	if n := len([]rune(pkg.Title)); n > 50 {
		return &models.ValidationError{Field: "title", Message: fmt.Sprintf("标题过长（%d 字），最多 50 字", n)}
	}
	if pkg.Content == "" {
		return &models.ValidationError{Field: "content", Message: "正文不能为空"}
	}
	if n := len([]rune(pkg.Content)); n > 1000 {
		return &models.ValidationError{Field: "content", Message: fmt.Sprintf("正文过长（%d 字），最多 1000 字", n)}
	}
	if len(pkg.Topics) > 10 {
		return &models.ValidationError{Field: "topics", Message: fmt.Sprintf("话题过多（%d 个），最多 10 个", len(pkg.Topics))}
	}
	if len(pkg.Images) == 0 {
		return &models.ValidationError{Field: "images", Message: "至少需要提供 1 张图片"}
	}
	if len(pkg.Images) > 9 {
		return &models.ValidationError{Field: "images", Message: fmt.Sprintf("最多 9 张图片，当前 %d 张", len(pkg.Images))}
	}
	for _, img := range pkg.Images {
		if _, err := os.Stat(img); err != nil {
			return &models.ValidationError{Field: "images", Message: fmt.Sprintf("图片文件不存在: %s", img)}
		}
		if !validImageExts[strings.ToLower(filepath.Ext(img))] {
			return &models.ValidationError{Field: "images", Message: fmt.Sprintf("不支持的图片格式: %s", img)}
		}
	}
	return nil
}

type publishRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Images  []string `json:"images"`
	Topics  []string `json:"topics,omitempty"`
}

// Publish validates the package and submits it. A bridge-side rejection
// comes back as a PublishResult with Success false, not as an error; errors
// mean the call itself failed.
func (p *Publisher) Publish(ctx context.Context, pkg *models.ContentPackage) (*models.PublishResult, error) {
	if err := ValidatePackage(pkg); err != nil {
		return nil, err
	}

	body, err := json.Marshal(publishRequest{
		Title:   pkg.Title,
		Content: pkg.Content,
		Images:  pkg.Images,
		Topics:  pkg.Topics,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal publish request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.bridgeURL+"/publish", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create publish request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("publish call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("publish bridge returned status %d", resp.StatusCode)
	}

	var result models.PublishResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode publish response: %w", err)
	}
	return &result, nil
}
