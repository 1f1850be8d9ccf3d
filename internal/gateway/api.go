package gateway

import (
	"context"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/tgifai/reminder/internal/reminder"
)

type reminderView struct {
	Position int    `json:"position"`
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	Text     string `json:"text"`
	DateTime string `json:"datetime"`
	Repeat   string `json:"repeat"`
	Describe string `json:"describe"`
	Creator  string `json:"creator_id,omitempty"`
}

func (gw *Gateway) authenticate(ctx context.Context, c *app.RequestContext) {
	if gw.cfg.APIKey == "" {
		c.Next(ctx)
		return
	}
	if string(c.GetHeader("Authorization")) != "Bearer "+gw.cfg.APIKey {
		c.AbortWithStatusJSON(consts.StatusUnauthorized, utils.H{"error": "unauthorized"})
		return
	}
	c.Next(ctx)
}

// listReminders serves GET /api/v1/reminders?address=&user_id=.
func (gw *Gateway) listReminders(_ context.Context, c *app.RequestContext) {
	s := gw.scheduler()
	if s == nil {
		c.JSON(consts.StatusServiceUnavailable, utils.H{"error": reminder.ErrNotInitialized.Error()})
		return
	}
	address := strings.TrimSpace(c.Query("address"))
	if address == "" {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "address is required"})
		return
	}
	key := s.Resolver().Isolate(address, strings.TrimSpace(c.Query("user_id")))

	items := s.List(key)
	views := make([]reminderView, 0, len(items))
	for i, it := range items {
		desc := it.Repeat
		if rule, err := it.Rule(); err == nil {
			desc = rule.Describe()
		}
		views = append(views, reminderView{
			Position: i + 1,
			ID:       it.ID,
			Kind:     it.Kind(),
			Text:     it.Text,
			DateTime: it.DateTime,
			Repeat:   it.Repeat,
			Describe: desc,
			Creator:  it.CreatorID,
		})
	}
	c.JSON(consts.StatusOK, utils.H{"key": key, "items": views})
}

// listJobs serves GET /api/v1/jobs.
func (gw *Gateway) listJobs(_ context.Context, c *app.RequestContext) {
	s := gw.scheduler()
	if s == nil {
		c.JSON(consts.StatusServiceUnavailable, utils.H{"error": reminder.ErrNotInitialized.Error()})
		return
	}
	jobs := s.Jobs()
	c.JSON(consts.StatusOK, utils.H{"count": len(jobs), "jobs": jobs})
}
