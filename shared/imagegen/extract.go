package imagegen

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"strings"

	"xhs-agent/shared/recovery"
)

type chatResponse struct {
	Choices []struct {
		Message responseMessage `json:"message"`
	} `json:"choices"`
}

type responseMessage struct {
	Images  []imageAttachment `json:"images"`
	Content json.RawMessage   `json:"content"`
}

type imageAttachment struct {
	ImageURL struct {
		URL string `json:"url"`
	} `json:"image_url"`
}

type contentPart struct {
	Type       string       `json:"type"`
	Image      *inlineImage `json:"image"`
	ImageURL   *imageURLRef `json:"image_url"`
	InlineData *inlineData  `json:"inline_data"`
}

type inlineImage struct {
	Data    string `json:"data"`
	B64JSON string `json:"b64_json"`
}

type imageURLRef struct {
	URL string `json:"url"`
}

type inlineData struct {
	Data string `json:"data"`
}

// messageBody is the explicit union over the content shapes providers use:
// a typed part list, a plain string, or something unrecognized.
type messageBody struct {
	kind  contentKind
	parts []contentPart
	text  string
}

type contentKind int

const (
	contentUnrecognized contentKind = iota
	contentParts
	contentText
)

func parseContent(raw json.RawMessage) messageBody {
	if len(raw) == 0 {
		return messageBody{kind: contentUnrecognized}
	}
	var parts []contentPart
	if err := json.Unmarshal(raw, &parts); err == nil {
		return messageBody{kind: contentParts, parts: parts}
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return messageBody{kind: contentText, text: text}
	}
	return messageBody{kind: contentUnrecognized}
}

var (
	markdownImageURL = regexp.MustCompile(`!\[.*?\]\((https?://[^\s)]+)\)`)
	bareImageURL     = regexp.MustCompile(`(https?://\S+\.(?:png|jpg|jpeg|webp|gif))`)
)

// extractImage searches one response body for image data, trying the three
// known provider shapes in order.
func (c *Client) extractImage(body []byte) ([]byte, bool) {
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil || len(resp.Choices) == 0 {
		return nil, false
	}

	msg := resp.Choices[0].Message
	content := parseContent(msg.Content)

	return recovery.FirstSuccess(
		func() ([]byte, bool) { return fromImagesArray(msg.Images) },
		func() ([]byte, bool) { return fromParts(content) },
		func() ([]byte, bool) { return c.fromEmbeddedURL(content) },
	)
}

// fromImagesArray handles the OpenRouter shape: an images array on the
// message whose entries hold data-URLs.
func fromImagesArray(images []imageAttachment) ([]byte, bool) {
	for _, img := range images {
		if data, ok := decodeDataURL(img.ImageURL.URL); ok {
			return data, true
		}
	}
	return nil, false
}

// fromParts handles the Gemini-style list-of-parts content: an inline image
// part, an image-URL part holding a data-URL, or an inline-data part.
func fromParts(content messageBody) ([]byte, bool) {
	if content.kind != contentParts {
		return nil, false
	}
	for _, part := range content.parts {
		var b64 string
		switch {
		case part.Type == "image" && part.Image != nil:
			b64 = part.Image.Data
			if b64 == "" {
				b64 = part.Image.B64JSON
			}
		case part.Type == "image_url" && part.ImageURL != nil:
			if data, ok := decodeDataURL(part.ImageURL.URL); ok {
				return data, true
			}
		case part.InlineData != nil:
			b64 = part.InlineData.Data
		}
		if b64 != "" {
			if data, err := base64.StdEncoding.DecodeString(b64); err == nil {
				return data, true
			}
		}
	}
	return nil, false
}

// fromEmbeddedURL handles plain-string content holding an image link:
// markdown image syntax first, then a bare image-extension URL, followed by
// a secondary fetch of whichever matched.
func (c *Client) fromEmbeddedURL(content messageBody) ([]byte, bool) {
	if content.kind != contentText || content.text == "" {
		return nil, false
	}

	var url string
	if m := markdownImageURL.FindStringSubmatch(content.text); m != nil {
		url = m[1]
	} else if m := bareImageURL.FindStringSubmatch(content.text); m != nil {
		url = m[1]
	}
	if url == "" {
		return nil, false
	}

	resp, err := c.httpClient.Get(url)
	if err != nil {
		return nil, false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, false
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false
	}
	return data, true
}

func decodeDataURL(url string) ([]byte, bool) {
	if !strings.HasPrefix(url, "data:") {
		return nil, false
	}
	_, b64, found := strings.Cut(url, ",")
	if !found {
		return nil, false
	}
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, false
	}
	return data, true
}
