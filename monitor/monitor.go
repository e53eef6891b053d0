package monitor

import (
	"time"

	"ip-management-api/config"
	"ip-management-api/models"

	"github.com/gin-gonic/gin"
)

var startedAt = time.Now()

// RegisterMonitorPage exposes a small operational dashboard: workflow queue
// depths and overdue counts, for a quick glance without database access.
func RegisterMonitorPage(router *gin.Engine) {
	router.GET("/monitor", func(c *gin.Context) {
		c.Data(200, "text/html; charset=utf-8", []byte(monitorHTML))
	})

	router.GET("/monitor/api/status", func(c *gin.Context) {
		counts := map[string]int64{}
		for _, status := range []string{
			models.StageStatusActive,
			models.StageStatusOverdue,
			models.StageStatusExpired,
		} {
			var n int64
			config.DB.Model(&models.WorkflowStageInstance{}).
				Where("status = ?", status).Count(&n)
			counts[status] = n
		}

		var pendingUsers int64
		config.DB.Model(&models.User{}).
			Where("is_approved = ? AND delete_at IS NULL", false).Count(&pendingUsers)

		c.JSON(200, gin.H{
			"uptime_seconds":    int(time.Since(startedAt).Seconds()),
			"stage_counts":      counts,
			"pending_approvals": pendingUsers,
			"timestamp":         time.Now(),
		})
	})
}

const monitorHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1.0" />
  <title>IP Workflow Monitor</title>
  <style>
    body { background: #0f0f0f; color: #e0e0e0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif; padding: 20px; }
    h1 { font-size: 1.8rem; margin-bottom: 20px; }
    .card { background: #1a1a2e; border-radius: 8px; padding: 16px; margin-bottom: 12px; max-width: 480px; }
    .label { color: #9090a0; font-size: 0.85rem; }
    .value { font-size: 1.6rem; font-weight: 600; }
  </style>
</head>
<body>
  <h1>IP Workflow Monitor</h1>
  <div class="card"><div class="label">Active stages</div><div class="value" id="active">-</div></div>
  <div class="card"><div class="label">Overdue stages</div><div class="value" id="overdue">-</div></div>
  <div class="card"><div class="label">Expired stages</div><div class="value" id="expired">-</div></div>
  <div class="card"><div class="label">Pending account approvals</div><div class="value" id="pending">-</div></div>
  <div class="card"><div class="label">Uptime (s)</div><div class="value" id="uptime">-</div></div>
  <script>
    async function refresh() {
      const res = await fetch('/monitor/api/status');
      const data = await res.json();
      document.getElementById('active').textContent = data.stage_counts.ACTIVE;
      document.getElementById('overdue').textContent = data.stage_counts.OVERDUE;
      document.getElementById('expired').textContent = data.stage_counts.EXPIRED;
      document.getElementById('pending').textContent = data.pending_approvals;
      document.getElementById('uptime').textContent = data.uptime_seconds;
    }
    refresh();
    setInterval(refresh, 10000);
  </script>
</body>
</html>`
