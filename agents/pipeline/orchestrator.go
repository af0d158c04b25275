// Package pipeline runs the full Xiaohongshu content lifecycle: trending
// scrape, topic selection, copywriting and image generation, then preview
// or publish depending on the configured mode.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"xhs-agent/agents/pipeline/trending"
	"xhs-agent/agents/pipeline/xhs"
	"xhs-agent/internal/models"
	"xhs-agent/shared/ai"
	"xhs-agent/shared/config"
	"xhs-agent/shared/imagegen"
	"xhs-agent/shared/storage"
)

// Narrow views of the collaborators so runs can be exercised with fakes.
type sessionChecker interface {
	Check() *xhs.SessionStatus
}

type trendingScraper interface {
	Scrape(ctx context.Context, query models.TrendingQuery) (*models.TrendingSnapshot, error)
}

type draftGenerator interface {
	GenerateDraft(ctx context.Context, topic, style string, imageCount int, trendingContext string) (*ai.Draft, error)
}

type imageGenerator interface {
	GenerateBatch(ctx context.Context, prompts []string, outputDir string) ([]string, error)
}

type bridgePublisher interface {
	Publish(ctx context.Context, pkg *models.ContentPackage) (*models.PublishResult, error)
}

// RunOptions are per-invocation overrides on top of the loaded config.
type RunOptions struct {
	Preview      bool // force preview regardless of configured mode
	Category     string
	Keyword      string
	SkipTrending bool // reuse the latest saved snapshot instead of scraping
}

type Orchestrator struct {
	cfg       *config.Config
	session   sessionChecker
	scraper   trendingScraper
	generator draftGenerator
	images    imageGenerator
	publisher bridgePublisher

	publishLog *storage.PublishLog
	snapshots  *storage.SnapshotStore
	packages   *storage.PackageStore

	// OnStep, when set, receives the run's status stream in addition to
	// the log lines.
	OnStep func(models.StepEvent)
}

func NewOrchestrator(cfg *config.Config) (*Orchestrator, error) {
	generator, err := ai.NewGenerator(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create content generator: %w", err)
	}

	// Image generation is optional at startup; a run that needs images
	// and has none still fails, but preview-only setups work without an
	// image API configured.
	var images imageGenerator
	if cfg.Image.APIKey != "" {
		client, err := imagegen.NewClient(&cfg.Image)
		if err != nil {
			return nil, fmt.Errorf("failed to create image client: %w", err)
		}
		images = client
	}

	publishLog, err := storage.NewPublishLog(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	snapshots, err := storage.NewSnapshotStore(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	packages, err := storage.NewPackageStore(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	return &Orchestrator{
		cfg:        cfg,
		session:    xhs.NewSessionChecker(cfg.CookiesFile),
		scraper:    trending.NewScraper(cfg.CookiesFile),
		generator:  generator,
		images:     images,
		publisher:  xhs.NewPublisher(&cfg.Publish),
		publishLog: publishLog,
		snapshots:  snapshots,
		packages:   packages,
	}, nil
}

func (o *Orchestrator) emit(step models.Step, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Printf("[%s] %s", step, msg)
	if o.OnStep != nil {
		o.OnStep(models.StepEvent{Step: step, Message: msg})
	}
}

// Run executes one full pipeline pass. The returned Outcome is always
// non-nil; the error is non-nil for every non-success status so callers
// can exit non-zero without inspecting the outcome.
func (o *Orchestrator) Run(ctx context.Context, opts RunOptions) (*models.Outcome, error) {
	mode := o.cfg.Mode
	if opts.Preview {
		mode = "preview"
	}
	category := o.cfg.Category
	if opts.Category != "" {
		category = opts.Category
	}

	// Quota first: recounted from today's log so a full day never costs
	// a single network call.
	published, err := o.publishLog.CountToday()
	if err != nil {
		return o.fail(models.StepQuotaCheck, nil, fmt.Errorf("failed to read publish log: %w", err))
	}
	if published >= o.cfg.MaxDailyPosts {
		o.emit(models.StepQuotaCheck, "今日发布已达上限 %d/%d，跳过本次运行", published, o.cfg.MaxDailyPosts)
		outcome := &models.Outcome{
			Status:         models.OutcomeQuotaReached,
			Step:           models.StepQuotaCheck,
			PublishedToday: published,
			MaxDailyPosts:  o.cfg.MaxDailyPosts,
		}
		return outcome, fmt.Errorf("daily publish quota reached (%d/%d)", published, o.cfg.MaxDailyPosts)
	}

	o.emit(models.StepCheckingAuth, "检查小红书登录状态...")
	status := o.session.Check()
	if !status.LoggedIn {
		o.emit(models.StepCheckingAuth, "登录检查失败: %s", status.Message)
		outcome := &models.Outcome{
			Status:  models.OutcomeAuthRequired,
			Step:    models.StepCheckingAuth,
			Message: status.Message,
		}
		return outcome, fmt.Errorf("session check: %w", xhs.ErrAuthRequired)
	}

	snap := o.collectTrending(ctx, opts, category)

	o.emit(models.StepSelectingTopic, "选择创作主题...")
	topic := o.selectTopic(snap, category)
	o.emit(models.StepSelectingTopic, "主题: %s", topic)

	pkg, err := o.generate(ctx, topic, snap)
	if err != nil {
		return o.fail(models.StepGenerating, nil, err)
	}

	if mode == "preview" {
		o.emit(models.StepPreviewing, "预览模式：内容已生成，等待人工确认后发布")
		o.emit(models.StepDone, "本次运行结束（未发布）")
		return &models.Outcome{
			Status:         models.OutcomeSuccess,
			Step:           models.StepPreviewing,
			Topic:          topic,
			Package:        pkg,
			PublishedToday: published,
			MaxDailyPosts:  o.cfg.MaxDailyPosts,
		}, nil
	}

	if len(pkg.Images) == 0 {
		// Publishing without images is worse than not publishing; keep
		// the generated text in the outcome for a manual retry.
		return o.fail(models.StepPublishing, pkg, fmt.Errorf("no images were generated, publish skipped"))
	}

	o.emit(models.StepPublishing, "发布到小红书...")
	if err := xhs.ValidatePackage(pkg); err != nil {
		return o.fail(models.StepPublishing, pkg, err)
	}
	result, err := o.publisher.Publish(ctx, pkg)
	if err != nil {
		return o.fail(models.StepPublishing, pkg, err)
	}
	if !result.Success {
		return o.fail(models.StepPublishing, pkg, fmt.Errorf("bridge rejected the post: %s", result.Message))
	}

	entry := models.PublishLogEntry{
		PublishedAt:   time.Now(),
		Title:         pkg.Title,
		ContentLength: len([]rune(pkg.Content)),
		ImageCount:    len(pkg.Images),
		Topics:        pkg.Topics,
		Result:        *result,
	}
	if err := o.publishLog.Append(entry); err != nil {
		log.Printf("Warning: published but failed to record log entry: %v", err)
	}

	count, err := o.publishLog.CountToday()
	if err != nil {
		count = published + 1
	}
	if count > o.cfg.MaxDailyPosts {
		count = o.cfg.MaxDailyPosts
	}
	o.emit(models.StepDone, "发布成功，今日 %d/%d", count, o.cfg.MaxDailyPosts)

	return &models.Outcome{
		Status:         models.OutcomeSuccess,
		Step:           models.StepPublishing,
		Topic:          topic,
		Package:        pkg,
		PublishedToday: count,
		MaxDailyPosts:  o.cfg.MaxDailyPosts,
	}, nil
}

// collectTrending returns the freshest snapshot it can get: a live scrape
// unless skipped, falling back to the latest persisted snapshot, falling
// back to nil. A nil snapshot is not fatal; topic selection degrades to
// the configured default.
func (o *Orchestrator) collectTrending(ctx context.Context, opts RunOptions, category string) *models.TrendingSnapshot {
	query := models.TrendingQuery{Category: category, Keyword: opts.Keyword}

	if !opts.SkipTrending {
		o.emit(models.StepScrapingTrending, "抓取热门笔记 (%s)...", query.Tag())
		snap, err := o.scraper.Scrape(ctx, query)
		if err == nil {
			if _, err := o.snapshots.Save(snap); err != nil {
				log.Printf("Warning: failed to save trending snapshot: %v", err)
			}
			o.emit(models.StepScrapingTrending, "获取 %d 条热门笔记", len(snap.Notes))
			return snap
		}
		o.emit(models.StepScrapingTrending, "抓取失败 (%v)，回退到最近一次快照", err)
	} else {
		o.emit(models.StepScrapingTrending, "跳过抓取，使用最近一次快照")
	}

	snap, err := o.snapshots.Latest()
	if err != nil {
		o.emit(models.StepScrapingTrending, "没有可用的热门快照，使用默认主题")
		return nil
	}
	return snap
}

func (o *Orchestrator) selectTopic(snap *models.TrendingSnapshot, category string) string {
	publishedTitles := map[string]bool{}
	if o.cfg.SkipPublishedTopics {
		titles, err := o.publishLog.PublishedTitles()
		if err != nil {
			log.Printf("Warning: failed to load published titles, dedup disabled for this run: %v", err)
		} else {
			publishedTitles = titles
		}
	}

	if topic := SelectTopic(snap, publishedTitles); topic != "" {
		return topic
	}
	if category != "" && category != "综合" {
		return category
	}
	return "生活分享"
}

func (o *Orchestrator) generate(ctx context.Context, topic string, snap *models.TrendingSnapshot) (*models.ContentPackage, error) {
	o.emit(models.StepGenerating, "生成文案 (主题: %s, 风格: %s)...", topic, o.cfg.Style)
	draft, err := o.generator.GenerateDraft(ctx, topic, o.cfg.Style, o.cfg.ImageCount, ai.TrendingContext(snap))
	if err != nil {
		return nil, fmt.Errorf("content generation failed: %w", err)
	}

	pkg := &models.ContentPackage{
		Title:        draft.Title,
		Content:      draft.Content,
		Topics:       draft.Topics,
		ImagePrompts: draft.ImagePrompts,
		Topic:        topic,
		Style:        o.cfg.Style,
		GeneratedAt:  time.Now(),
	}

	runDir, err := o.packages.NewRunDir()
	if err != nil {
		return nil, err
	}

	if o.images != nil && len(pkg.ImagePrompts) > 0 {
		o.emit(models.StepGenerating, "生成配图 %d 张...", len(pkg.ImagePrompts))
		images, err := o.images.GenerateBatch(ctx, pkg.ImagePrompts, runDir)
		if err != nil {
			return nil, fmt.Errorf("image generation failed: %w", err)
		}
		pkg.Images = images
		o.emit(models.StepGenerating, "成功生成 %d/%d 张配图", len(images), len(pkg.ImagePrompts))
	} else if o.images == nil {
		o.emit(models.StepGenerating, "未配置图片接口，跳过配图生成")
	}

	path, err := o.packages.Save(runDir, pkg)
	if err != nil {
		return nil, err
	}
	o.emit(models.StepGenerating, "内容包已保存: %s", path)

	return pkg, nil
}

func (o *Orchestrator) fail(step models.Step, pkg *models.ContentPackage, err error) (*models.Outcome, error) {
	o.emit(step, "失败: %v", err)
	outcome := &models.Outcome{
		Status:        models.OutcomeFailure,
		Step:          step,
		Package:       pkg,
		Message:       err.Error(),
		MaxDailyPosts: o.cfg.MaxDailyPosts,
	}
	if pkg != nil {
		outcome.Topic = pkg.Topic
	}
	return outcome, err
}
