package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"star-spark/internal/domain"
	"star-spark/internal/port"
)

// DefaultWindowDays 摘要只看最近多少天内 Star 的仓库
const DefaultWindowDays = 90

const (
	digestTitle       = "Star Spark Digest"
	digestIntroFormat = "Hey %s, here are a few stars ready to leap from your saved galaxy into your next build."
)

// AssembleDigest 把高亮组装配成最终摘要，纯组合没有失败路径
// 开场白里带上用户名，空组在上游就被丢掉了
func AssembleDigest(highlights []*domain.Highlight, username string) *domain.Digest {
	return &domain.Digest{
		Title:      digestTitle,
		Intro:      fmt.Sprintf(digestIntroFormat, username),
		Highlights: highlights,
	}
}

// ReminderService 摘要流水线的编排器
// 每个用户按 频率闸门 → 拉取 → 过滤 → 策展 → 装配 → 发送 → 记账 的顺序走
type ReminderService struct {
	source    port.StarSource
	filter    port.Filter
	clusterer port.Clusterer
	users     port.UserStore
	reminders port.ReminderStore
	mailer    port.Mailer

	windowDays int
	nowFunc    func() time.Time

	// 同一个用户的执行要串行化，防止定时触发和手动触发撞车导致重复发送
	// lastSent 记录本进程内最近一次发送时间：调用方传进来的 user 是
	// 加锁之前加载的快照，两轮重叠时快照会过期，闸门必须以这里的为准
	mu        sync.Mutex
	userLocks map[string]*sync.Mutex
	lastSent  map[string]time.Time
}

// NewReminderService 创建新的摘要服务
func NewReminderService(
	source port.StarSource,
	filter port.Filter,
	clusterer port.Clusterer,
	users port.UserStore,
	reminders port.ReminderStore,
	mailer port.Mailer,
	windowDays int,
) *ReminderService {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	return &ReminderService{
		source:     source,
		filter:     filter,
		clusterer:  clusterer,
		users:      users,
		reminders:  reminders,
		mailer:     mailer,
		windowDays: windowDays,
		nowFunc:    time.Now,
		userLocks:  make(map[string]*sync.Mutex),
		lastSent:   make(map[string]time.Time),
	}
}

// RunCycle 为全体可通知用户跑一轮摘要
// 单个用户的失败只记日志不中断整轮，下个调度周期自然重试
func (s *ReminderService) RunCycle(ctx context.Context) error {
	fmt.Println("🚀 [摘要模式] 开始本轮 Star Spark 摘要派发...")

	users, err := s.users.ListNotifiable(ctx)
	if err != nil {
		log.Printf("❌ 拉取用户列表失败: %v", err)
		return err
	}
	fmt.Printf("👥 本轮共 %d 个候选用户\n", len(users))

	sent, skipped, failed := 0, 0, 0
	for _, user := range users {
		select {
		case <-ctx.Done():
			fmt.Println("⏰ 执行时间过长，提前结束本轮派发")
			return ctx.Err()
		default:
		}

		delivered, err := s.runForUser(ctx, user)
		if err != nil {
			log.Printf("❌ 用户 %s 本轮摘要失败: %v，继续处理下一个", user.Username, err)
			failed++
			continue
		}
		if delivered {
			sent++
		} else {
			skipped++
		}
	}

	fmt.Printf("🎉 本轮派发完成：发出 %d 封摘要，跳过 %d 个用户，失败 %d 个\n", sent, skipped, failed)
	return nil
}

// RunForUser 为单个用户执行一次完整流水线
func (s *ReminderService) RunForUser(ctx context.Context, user *domain.User) error {
	_, err := s.runForUser(ctx, user)
	return err
}

// runForUser 返回这次调用有没有真的发出邮件，静默跳过不算失败
// 闸门在拉取之前判断，避免给不到期的用户白白打一轮 GitHub API
func (s *ReminderService) runForUser(ctx context.Context, user *domain.User) (bool, error) {
	lock := s.userLock(user.ID)
	lock.Lock()
	defer lock.Unlock()

	if user.NotificationEmail == "" {
		return false, nil
	}

	now := s.nowFunc()
	if !user.Cadence.IsDue(s.effectiveLastSent(user), now) {
		return false, nil
	}

	if !s.mailer.Configured() {
		log.Printf("⚠️ 投递通道未配置，跳过用户 %s (不记账，下轮重试)", user.Username)
		return false, nil
	}

	// 没有令牌 (或查询出错) 就降级走公开接口
	token, err := s.users.GetAccessToken(ctx, user.ID)
	if err != nil {
		log.Printf("⚠️ 查询用户 %s 的令牌失败: %v，改走公开接口", user.Username, err)
		token = ""
	}

	repos, err := s.source.FetchStarred(ctx, user.Username, token)
	if err != nil {
		return false, err
	}
	fmt.Printf("📥 用户 %s 共拉到 %d 个 Star 仓库\n", user.Username, len(repos))

	criteria := domain.ParseFilterCriteria(user.Filters)
	windowStart := now.AddDate(0, 0, -s.windowDays)
	eligible := s.filter.Apply(repos, criteria, windowStart)

	highlights := s.clusterer.BuildHighlights(eligible, now)
	digest := AssembleDigest(highlights, user.Username)
	if len(digest.Highlights) == 0 {
		// 没东西可发不是错误，安静跳过，不更新 lastDigestSentAt
		fmt.Printf("📭 用户 %s 本轮没有可推荐的高亮，跳过\n", user.Username)
		return false, nil
	}

	if err := s.mailer.SendDigest(ctx, user.NotificationEmail, digest, user.Username); err != nil {
		// 投递失败不记账，用户保持"到期"状态等下轮
		return false, err
	}

	// 邮件一旦发出就立刻记到本地，记账失败也不能让重叠的一轮再发一封
	sentAt := s.nowFunc()
	s.recordLastSent(user.ID, sentAt)

	if err := s.reminders.MarkDigestSent(ctx, user.ID, digest.Items(), sentAt); err != nil {
		// 邮件已经发出去了但记账没写进去，重启后下轮可能重复发送
		log.Printf("🚨 用户 %s 的摘要已发送但记账失败: %v", user.Username, err)
		return true, err
	}

	fmt.Printf("📲 已给用户 %s 发送 %d 组高亮\n", user.Username, len(digest.Highlights))
	return true, nil
}

func (s *ReminderService) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.userLocks[userID]; !ok {
		s.userLocks[userID] = &sync.Mutex{}
	}
	return s.userLocks[userID]
}

// effectiveLastSent 取快照和本地记录里更新的那个发送时间
// 调用方的 user 可能是上一轮开始前加载的，快照落后时以本地记录为准
func (s *ReminderService) effectiveLastSent(user *domain.User) *time.Time {
	s.mu.Lock()
	local, ok := s.lastSent[user.ID]
	s.mu.Unlock()
	if !ok {
		return user.LastDigestSentAt
	}
	if user.LastDigestSentAt == nil || local.After(*user.LastDigestSentAt) {
		return &local
	}
	return user.LastDigestSentAt
}

func (s *ReminderService) recordLastSent(userID string, sentAt time.Time) {
	s.mu.Lock()
	s.lastSent[userID] = sentAt
	s.mu.Unlock()
}
