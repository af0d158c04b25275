package ai

import (
	"context"
	"fmt"
	"strings"

	"xhs-agent/internal/models"
	"xhs-agent/shared/config"
	"xhs-agent/shared/recovery"

	"google.golang.org/genai"
)

// StylePrompts maps a content style tag to the writing instructions fed to
// the copywriting model.
var StylePrompts = map[string]string{
	"干货分享": "专业知识分享风格，条理清晰，用数据和事实说话，适当使用 emoji 增加可读性",
	"种草推荐": "真诚推荐风格，从个人使用体验出发，突出产品/服务的亮点和实际效果",
	"经验分享": "过来人的口吻，分享踩坑经历和实用技巧，亲切自然",
	"教程攻略": "手把手教学风格，步骤清晰，图文并茂，新手友好",
	"生活记录": "记录生活的美好瞬间，文字温暖有感染力，配图精致",
}

const defaultStyle = "干货分享"

// Draft is the structured record recovered from the model's free-form
// response, before images are generated.
type Draft struct {
	Title        string   `json:"title"`
	Content      string   `json:"content"`
	Topics       []string `json:"topics"`
	ImagePrompts []string `json:"image_prompts"`
}

// Truncate enforces the publish policy bounds by hard truncation, never
// rejection: title to 50 runes, body to 1000, at most 10 topics, at most
// imageCount prompts. Truncating compliant fields is a no-op.
func (d *Draft) Truncate(imageCount int) {
	d.Title = truncateRunes(d.Title, 50)
	d.Content = truncateRunes(d.Content, 1000)
	if len(d.Topics) > 10 {
		d.Topics = d.Topics[:10]
	}
	if imageCount >= 0 && len(d.ImagePrompts) > imageCount {
		d.ImagePrompts = d.ImagePrompts[:imageCount]
	}
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

type Generator struct {
	client *genai.Client
	model  string
}

func NewGenerator(cfg *config.Config) (*Generator, error) {
	ctx := context.Background()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.AI.GeminiAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Generator{
		client: client,
		model:  cfg.AI.Model,
	}, nil
}

// GenerateDraft asks the model for one note draft and recovers the
// structured record from its textual response.
func (g *Generator) GenerateDraft(ctx context.Context, topic, style string, imageCount int, trendingContext string) (*Draft, error) {
	if topic == "" {
		return nil, fmt.Errorf("topic is required")
	}

	prompt := buildCopywritingPrompt(topic, style, imageCount, trendingContext)

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(prompt)}, genai.RoleUser),
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("copywriting generation failed for topic %q: %w", topic, err)
	}

	text := result.Text()
	if text == "" {
		return nil, fmt.Errorf("empty copywriting response for topic %q", topic)
	}

	var draft Draft
	if err := recovery.Extract(text, &draft); err != nil {
		return nil, fmt.Errorf("failed to parse copywriting response: %w", err)
	}
	if draft.Title == "" || draft.Content == "" {
		return nil, fmt.Errorf("copywriting response missing title or content")
	}

	draft.Truncate(imageCount)
	return &draft, nil
}

func buildCopywritingPrompt(topic, style string, imageCount int, trendingContext string) string {
	styleDesc, ok := StylePrompts[style]
	if !ok {
		styleDesc = StylePrompts[defaultStyle]
	}

	return fmt.Sprintf(`你是一个专业的小红书内容创作者。请根据以下要求生成一篇小红书笔记。

主题：%s
风格：%s
%s

要求：
1. 标题：吸引眼球，10-25字，可以用 emoji，要有关键词
2. 正文：300-800字，分段清晰，适当使用 emoji，符合小红书的阅读习惯
3. 话题标签：5-8个相关话题，每个2-6字
4. 图片描述：为每张配图写一段英文描述（用于 AI 图片生成），要具体、有画面感、适合小红书风格

请严格按以下 JSON 格式输出（不要包含 markdown 代码块标记）：
{
    "title": "标题",
    "content": "正文内容（包含 emoji 和换行）",
    "topics": ["话题1", "话题2", "话题3", "话题4", "话题5"],
    "image_prompts": [
        "English description for image 1, detailed and specific",
        "English description for image 2, detailed and specific"
    ]
}

注意：
- image_prompts 数量要求：%d 张
- 标题不超过 50 字
- 正文不超过 1000 字
- 每个话题不超过 20 字
- 图片描述要用英文，要具体到颜色、构图、风格`,
		topic, styleDesc, trendingContext, imageCount)
}

// TrendingContext formats a snapshot into the reference block appended to
// the copywriting prompt.
func TrendingContext(snap *models.TrendingSnapshot) string {
	if snap == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString("以下是当前小红书热门内容供参考：\n")

	if snap.Analysis != nil && len(snap.Analysis.TopKeywords) > 0 {
		words := make([]string, 0, 10)
		for _, kw := range snap.Analysis.TopKeywords {
			words = append(words, kw.Word)
			if len(words) == 10 {
				break
			}
		}
		b.WriteString(fmt.Sprintf("热门关键词：%s\n", strings.Join(words, ", ")))
	}

	for i, note := range snap.Notes {
		if i == 5 {
			break
		}
		b.WriteString(fmt.Sprintf("%d. %s (点赞: %d)\n", i+1, note.Title, note.Likes))
	}

	return b.String()
}
