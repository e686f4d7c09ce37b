package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"star-spark/internal/adapter/filter"
	"star-spark/internal/adapter/github"
	"star-spark/internal/adapter/highlight"
	"star-spark/internal/service"

	"github.com/joho/godotenv"
)

// 调试入口：对指定用户名跑一遍 抓取 → 过滤 → 策展 → 装配，只打印不发邮件
func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Println("用法: debug <github-username>")
		fmt.Println("可选: 设置 GITHUB_TOKEN 环境变量以读取私有 Star 列表")
		os.Exit(1)
	}
	username := os.Args[1]
	token := os.Getenv("GITHUB_TOKEN")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	fetcher := github.NewFetcher()
	eligibility := filter.NewEligibilityFilter()
	clusterer := highlight.NewClusterer(nil)

	fmt.Printf("🔍 调试模式：为 %s 生成一期摘要 (不发送)\n", username)

	// 1. 抓取 Star 列表
	fmt.Println("📥 正在抓取 Star 列表...")
	repos, err := fetcher.FetchStarred(ctx, username, token)
	if err != nil {
		log.Fatalf("❌ 抓取失败: %v", err)
	}
	fmt.Printf("✅ 成功获取 %d 个 Star 仓库\n", len(repos))

	// 2. 资格过滤 (无自定义条件，默认回看窗口)
	windowStart := time.Now().AddDate(0, 0, -service.DefaultWindowDays)
	eligible := eligibility.Apply(repos, nil, windowStart)
	fmt.Printf("✅ 过滤后剩余 %d 个仓库\n", len(eligible))

	if len(eligible) == 0 {
		fmt.Println("📭 回看窗口内没有可用仓库，这一期会被静默跳过")
		return
	}

	// 3. 策展分组 + 装配
	highlights := clusterer.BuildHighlights(eligible, time.Now())
	digest := service.AssembleDigest(highlights, username)

	// 4. 打印摘要内容
	fmt.Printf("\n================ [ %s ] ================\n", digest.Title)
	fmt.Println(digest.Intro)
	for _, h := range digest.Highlights {
		fmt.Printf("\n✨ %s (%s)\n", h.Title, h.Tagline)
		for _, item := range h.Items {
			fmt.Printf("  ⭐ %s (%s, %d stars)\n", item.FullName, orDash(item.Language), item.Stars)
			fmt.Printf("     %s\n", item.Vibe)
		}
	}
	fmt.Println("\n==================================================")
	fmt.Printf("共 %d 组高亮，%d 条仓库记录\n", len(digest.Highlights), len(digest.Items()))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
