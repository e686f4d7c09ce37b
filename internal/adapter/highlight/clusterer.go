package highlight

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"star-spark/internal/domain"
)

// 每组最多 3 条；Throwback 只收 45 天前 Star 的仓库
const (
	maxItemsPerGroup = 3
	throwbackAgeDays = 45
)

// 各主题的 vibe 文案池，纯装饰用，随机挑一条
var vibePools = map[string][]string{
	"fresh": {
		"You just lit this spark — keep that momentum glowing! ✨",
		"Still warm from your curiosity furnace.",
		"Brand-new inspiration, ready for first light.",
	},
	"throwback": {
		"A legendary idea waiting for its encore.",
		"Vintage brilliance you handpicked.",
		"Like vinyl for devs — still groovy, always relevant.",
	},
	"language": {
		"Your favorite syntax is calling.",
		"Dialed-in to the language you love.",
		"A familiar toolkit with fresh adventure.",
	},
	"serendipity": {
		"A whimsical detour from your star map.",
		"Unexpected delight from the cosmos.",
		"A wild card gem to tinker with tonight.",
	},
}

// Clusterer 实现了 port.Clusterer 接口
// 四个启发式互相独立，同一个仓库可以同时出现在多个组里
type Clusterer struct {
	rng *rand.Rand
}

// NewClusterer 创建策展器，rng 为 nil 时用当前时间做种子
// 测试里传固定种子的 rand 就能拿到确定性的洗牌和文案
func NewClusterer(rng *rand.Rand) *Clusterer {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Clusterer{rng: rng}
}

// BuildHighlights 按固定顺序跑四个启发式，空组直接丢掉
func (c *Clusterer) BuildHighlights(repos []*domain.StarredRepo, now time.Time) []*domain.Highlight {
	var highlights []*domain.Highlight
	for _, h := range []*domain.Highlight{
		c.freshHighlight(repos),
		c.throwbackHighlight(repos, now),
		c.languageHighlight(repos),
		c.serendipityHighlight(repos),
	} {
		if h != nil {
			highlights = append(highlights, h)
		}
	}
	return highlights
}

// freshHighlight 最近 Star 的前 3 个
func (c *Clusterer) freshHighlight(repos []*domain.StarredRepo) *domain.Highlight {
	fresh := take(sortByStarredAt(repos, false), maxItemsPerGroup)
	if len(fresh) == 0 {
		return nil
	}
	return &domain.Highlight{
		ID:      "fresh-sparks",
		Title:   "Fresh Sparks",
		Tagline: "The newest stars you saved — keep the excitement going while the glow is bright.",
		Items:   c.toItems(fresh, "fresh"),
	}
}

// throwbackHighlight 只收 Star 时间严格早于 45 天前的，按最老的排前面
func (c *Clusterer) throwbackHighlight(repos []*domain.StarredRepo, now time.Time) *domain.Highlight {
	threshold := now.Add(-throwbackAgeDays * 24 * time.Hour)

	var old []*domain.StarredRepo
	for _, repo := range repos {
		if repo.StarredAt != nil && repo.StarredAt.Before(threshold) {
			old = append(old, repo)
		}
	}

	throwbacks := take(sortByStarredAt(old, true), maxItemsPerGroup)
	if len(throwbacks) == 0 {
		return nil
	}
	return &domain.Highlight{
		ID:      "throwback-legends",
		Title:   "Throwback Legends",
		Tagline: "Seasoned picks from your archive — perfect for a weekend deep dive.",
		Items:   c.toItems(throwbacks, "throwback"),
	}
}

// languageHighlight 找出成员最多 (且超过 1 个) 的语言组
// 没标语言的仓库一起进 "Polyglot" 桶；数量打平时取先出现的语言
func (c *Clusterer) languageHighlight(repos []*domain.StarredRepo) *domain.Highlight {
	groups := make(map[string][]*domain.StarredRepo)
	var order []string

	for _, repo := range repos {
		lang := repo.Language
		if lang == "" {
			lang = "Polyglot"
		}
		if _, seen := groups[lang]; !seen {
			order = append(order, lang)
		}
		groups[lang] = append(groups[lang], repo)
	}

	var topLang string
	for _, lang := range order {
		if len(groups[lang]) <= 1 {
			continue
		}
		if topLang == "" || len(groups[lang]) > len(groups[topLang]) {
			topLang = lang
		}
	}
	if topLang == "" {
		return nil
	}

	members := take(groups[topLang], maxItemsPerGroup)
	return &domain.Highlight{
		ID:      "language-lounge",
		Title:   fmt.Sprintf("%s Lounge", topLang),
		Tagline: fmt.Sprintf("Your %s stack is humming — here are a few riffs worth playing.", topLang),
		Items:   c.toItems(members, "language"),
	}
}

// serendipityHighlight 全集均匀洗牌后取前 3 个
func (c *Clusterer) serendipityHighlight(repos []*domain.StarredRepo) *domain.Highlight {
	if len(repos) == 0 {
		return nil
	}

	shuffled := make([]*domain.StarredRepo, len(repos))
	copy(shuffled, repos)
	c.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	return &domain.Highlight{
		ID:      "cosmic-serendipity",
		Title:   "Cosmic Serendipity",
		Tagline: "A whimsical trio plucked from your constellation for pure maker joy.",
		Items:   c.toItems(take(shuffled, maxItemsPerGroup), "serendipity"),
	}
}

func (c *Clusterer) toItems(repos []*domain.StarredRepo, poolKey string) []*domain.DigestItem {
	items := make([]*domain.DigestItem, 0, len(repos))
	for _, repo := range repos {
		items = append(items, &domain.DigestItem{
			ID:          repo.ID,
			Name:        repo.Name(),
			FullName:    repo.FullName,
			HTMLURL:     repo.URL,
			Description: repo.Description,
			Language:    repo.Language,
			Stars:       repo.Stars,
			Topics:      repo.Topics,
			StarredAt:   repo.StarredAt,
			Owner:       repo.Owner,
			Vibe:        c.pickVibe(poolKey),
		})
	}
	return items
}

func (c *Clusterer) pickVibe(poolKey string) string {
	pool := vibePools[poolKey]
	if len(pool) == 0 {
		return ""
	}
	return pool[c.rng.Intn(len(pool))]
}

// sortByStarredAt 返回排好序的副本，缺 starred_at 的按零值时间排 (最老)
func sortByStarredAt(repos []*domain.StarredRepo, asc bool) []*domain.StarredRepo {
	sorted := make([]*domain.StarredRepo, len(repos))
	copy(sorted, repos)
	sort.SliceStable(sorted, func(i, j int) bool {
		var ti, tj time.Time
		if sorted[i].StarredAt != nil {
			ti = *sorted[i].StarredAt
		}
		if sorted[j].StarredAt != nil {
			tj = *sorted[j].StarredAt
		}
		if asc {
			return ti.Before(tj)
		}
		return tj.Before(ti)
	})
	return sorted
}

func take(repos []*domain.StarredRepo, n int) []*domain.StarredRepo {
	if len(repos) <= n {
		return repos
	}
	return repos[:n]
}
