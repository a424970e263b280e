// Package models contains data structures for the application's domain models.
package models

import (
	"strings"
	"time"
)

// Platform identifies a social network a post targets.
type Platform string

const (
	PlatformFacebook  Platform = "facebook"
	PlatformTwitter   Platform = "twitter"
	PlatformInstagram Platform = "instagram"
	PlatformLinkedIn  Platform = "linkedin"
)

// AllPlatforms lists every supported platform in display order.
var AllPlatforms = []Platform{PlatformFacebook, PlatformTwitter, PlatformInstagram, PlatformLinkedIn}

// ParsePlatform normalizes raw and reports whether it names a supported platform.
func ParsePlatform(raw string) (Platform, bool) {
	p := Platform(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range AllPlatforms {
		if p == known {
			return p, true
		}
	}
	return "", false
}

// PostStatus is the publication state of a scheduled post.
type PostStatus string

const (
	StatusScheduled PostStatus = "scheduled"
	StatusPublished PostStatus = "published"
	StatusPending   PostStatus = "pending"
	StatusFailed    PostStatus = "failed"
)

// AllStatuses lists every post status.
var AllStatuses = []PostStatus{StatusScheduled, StatusPublished, StatusPending, StatusFailed}

// ParseStatus normalizes raw and reports whether it names a known status.
func ParseStatus(raw string) (PostStatus, bool) {
	s := PostStatus(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range AllStatuses {
		if s == known {
			return s, true
		}
	}
	return "", false
}

// statusTransitions holds the manual moves allowed from each status.
// Published is terminal.
var statusTransitions = map[PostStatus][]PostStatus{
	StatusScheduled: {StatusPublished, StatusPending, StatusFailed},
	StatusPending:   {StatusScheduled, StatusFailed},
	StatusFailed:    {StatusScheduled, StatusPending},
	StatusPublished: nil,
}

// CanTransitionTo reports whether a post may move from s to next.
func (s PostStatus) CanTransitionTo(next PostStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Engagement holds the counters recorded for a published post.
type Engagement struct {
	Likes       int     `json:"likes"`
	Comments    int     `json:"comments"`
	Shares      int     `json:"shares"`
	Reach       int     `json:"reach"`
	Impressions int     `json:"impressions"`
	CTR         float64 `json:"ctr"`
}

// Interactions is likes + comments + shares.
func (e Engagement) Interactions() int {
	return e.Likes + e.Comments + e.Shares
}

// ScheduledPost is one entry of a user's scheduled post working set.
type ScheduledPost struct {
	ID            string     `json:"id"`
	Content       string     `json:"content"`
	Platform      Platform   `json:"platform"`
	Status        PostStatus `json:"status"`
	ScheduledTime time.Time  `json:"scheduled_time"`
	AIScore       int        `json:"ai_score"`
	Engagement
}

// EngagementApplicable reports whether the engagement counters carry meaning.
func (p *ScheduledPost) EngagementApplicable() bool {
	return p.Status == StatusPublished
}

// ScheduledPostView is the API shape of a post. Engagement is nil for
// posts that are not published.
type ScheduledPostView struct {
	ID            string      `json:"id"`
	Content       string      `json:"content"`
	Platform      Platform    `json:"platform"`
	Status        PostStatus  `json:"status"`
	ScheduledTime time.Time   `json:"scheduled_time"`
	AIScore       int         `json:"ai_score"`
	Engagement    *Engagement `json:"engagement"`
}

// View converts p to its API representation.
func (p *ScheduledPost) View() ScheduledPostView {
	v := ScheduledPostView{
		ID:            p.ID,
		Content:       p.Content,
		Platform:      p.Platform,
		Status:        p.Status,
		ScheduledTime: p.ScheduledTime,
		AIScore:       p.AIScore,
	}
	if p.EngagementApplicable() {
		e := p.Engagement
		v.Engagement = &e
	}
	return v
}

// PostFilter selects posts; zero-valued fields are ignored and the rest are ANDed.
type PostFilter struct {
	Platform   Platform
	Status     PostStatus
	SearchText string
}

// Matches reports whether p satisfies every predicate in f.
func (f PostFilter) Matches(p *ScheduledPost) bool {
	if f.Platform != "" && p.Platform != f.Platform {
		return false
	}
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if q := strings.TrimSpace(f.SearchText); q != "" {
		if !strings.Contains(strings.ToLower(p.Content), strings.ToLower(q)) {
			return false
		}
	}
	return true
}

// PostPatch carries the mutable fields of a post. Nil fields are left as is.
type PostPatch struct {
	Content  *string   `json:"content,omitempty"`
	Platform *Platform `json:"platform,omitempty"`
}

// Aggregate is the rollup over published posts.
type Aggregate struct {
	Empty            bool    `json:"empty"`
	TotalPosts       int     `json:"total_posts"`
	TotalLikes       int     `json:"total_likes"`
	TotalComments    int     `json:"total_comments"`
	TotalShares      int     `json:"total_shares"`
	TotalReach       int     `json:"total_reach"`
	TotalImpressions int     `json:"total_impressions"`
	AvgAIScore       float64 `json:"avg_ai_score"`
	AvgEngagement    int     `json:"avg_engagement"`
	EngagementRate   float64 `json:"engagement_rate"`
}

// TimeSeriesPoint is one calendar day of published engagement.
type TimeSeriesPoint struct {
	Date     string `json:"date"`
	Likes    int    `json:"likes"`
	Comments int    `json:"comments"`
	Shares   int    `json:"shares"`
	Reach    int    `json:"reach"`
}

// Breakdown counts posts by status and by platform.
type Breakdown struct {
	Total      int                `json:"total"`
	ByStatus   map[PostStatus]int `json:"by_status"`
	ByPlatform map[Platform]int   `json:"by_platform"`
}
