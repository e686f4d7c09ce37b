package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"star-spark/internal/adapter/filter"
	"star-spark/internal/adapter/github"
	"star-spark/internal/adapter/highlight"
	"star-spark/internal/adapter/mailer"
	"star-spark/internal/adapter/repository"
	"star-spark/internal/service"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

const (
	// 生产环境每天 UTC 14 点跑一轮，开发环境每小时跑一轮方便调试
	prodSchedule = "0 14 * * *"
	devSchedule  = "0 * * * *"
)

// appConfig 从环境变量收拢的启动配置
type appConfig struct {
	databaseURL    string
	sendgridAPIKey string
	emailFrom      string
	appBaseURL     string
	windowDays     int
	schedule       string
}

// loadConfig 读取环境变量并填充默认值
func loadConfig(getenv func(string) string) (*appConfig, error) {
	cfg := &appConfig{
		databaseURL:    getenv("DATABASE_URL"),
		sendgridAPIKey: getenv("SENDGRID_API_KEY"),
		emailFrom:      getenv("EMAIL_FROM"),
		appBaseURL:     getenv("APP_BASE_URL"),
		windowDays:     service.DefaultWindowDays,
		schedule:       resolveSchedule(getenv("APP_ENV"), getenv("DIGEST_CRON")),
	}

	if cfg.databaseURL == "" {
		return nil, fmt.Errorf("缺少 DATABASE_URL 环境变量")
	}
	if cfg.appBaseURL == "" {
		cfg.appBaseURL = "http://localhost:3000"
	}

	if raw := getenv("REMINDER_WINDOW_DAYS"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days <= 0 {
			return nil, fmt.Errorf("REMINDER_WINDOW_DAYS 配置无效: %q", raw)
		}
		cfg.windowDays = days
	}

	return cfg, nil
}

// resolveSchedule 决定 cron 表达式: 显式配置 > 环境默认
func resolveSchedule(appEnv, override string) string {
	if override != "" {
		return override
	}
	if appEnv == "production" {
		return prodSchedule
	}
	return devSchedule
}

func main() {
	// 1. 命令行参数
	once := flag.Bool("once", false, "只跑一轮摘要周期然后退出 (不启动定时器)")
	flag.Parse()

	// 2. 加载 .env (不存在也没关系，线上直接注入环境变量)
	if err := godotenv.Load(); err != nil {
		log.Println("📄 未找到 .env 文件，使用进程环境变量")
	}

	cfg, err := loadConfig(os.Getenv)
	if err != nil {
		log.Fatalf("❌ 配置加载失败: %v", err)
	}

	// 3. 初始化数据库
	repoStore, err := repository.NewPostgresRepo(cfg.databaseURL)
	if err != nil {
		log.Fatalf("❌ DB 初始化失败: %v", err)
	}

	// 4. 组装摘要流水线
	reminderService := service.NewReminderService(
		github.NewFetcher(),
		filter.NewEligibilityFilter(),
		highlight.NewClusterer(nil),
		repoStore,
		repoStore,
		mailer.NewMailer(cfg.sendgridAPIKey, cfg.emailFrom, cfg.appBaseURL),
		cfg.windowDays,
	)

	if *once {
		if err := reminderService.RunCycle(context.Background()); err != nil {
			log.Fatalf("❌ 摘要周期执行失败: %v", err)
		}
		return
	}

	runScheduled(reminderService, cfg.schedule)
}

// runScheduled 按 cron 表达式循环跑摘要周期，直到收到退出信号
func runScheduled(reminderService *service.ReminderService, schedule string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// 上一轮还没跑完时跳过本轮触发，避免两轮重叠拿着过期快照重复发送
	scheduler := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
	))
	_, err := scheduler.AddFunc(schedule, func() {
		if err := reminderService.RunCycle(ctx); err != nil {
			log.Printf("🚨 摘要周期执行失败: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("❌ cron 表达式无效 %q: %v", schedule, err)
	}

	scheduler.Start()
	fmt.Printf("⏰ 定时摘要已启动，cron 表达式: %s\n", schedule)
	fmt.Println("按下 Ctrl+C 可以优雅停止程序")

	<-sigChan
	fmt.Println("\n👋 收到停止信号，正在退出...")
	stopCtx := scheduler.Stop()
	<-stopCtx.Done()
}
