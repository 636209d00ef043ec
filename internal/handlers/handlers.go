package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"medwarehouse/internal/runlog"
	"medwarehouse/pkg/api/analytics"
	"medwarehouse/pkg/api/common"
	"medwarehouse/pkg/logging"
	"medwarehouse/pkg/models"
)

const topProductsQuery = `
SELECT message_text AS term, count() AS mention_count
FROM fct_messages
WHERE message_text != ''
GROUP BY term
ORDER BY mention_count DESC, term
LIMIT ?`

// GetTopProducts returns the most frequently mentioned message texts across facts
func GetTopProducts(c *gin.Context) {
	limit, ok := parseLimit(c, 10)
	if !ok {
		return
	}
	if !warehouseReady(c) {
		return
	}

	start := time.Now()
	rows, err := clickhouse.QueryContext(c.Request.Context(), topProductsQuery, limit)
	observeQuery("top_products", start, err)
	if err != nil {
		logger.WithError(err).Error("Failed to fetch top products from ClickHouse")
		c.JSON(http.StatusInternalServerError, common.ErrorResponse{Error: "Failed to fetch top products"})
		return
	}
	defer rows.Close()

	products := analytics.TopProductsResponse{}
	for rows.Next() {
		var p analytics.TopProduct
		if err := rows.Scan(&p.Term, &p.MentionCount); err != nil {
			logger.WithError(err).Error("Failed to scan top product row")
			continue
		}
		products = append(products, p)
	}
	c.JSON(http.StatusOK, products)
}

const channelActivityQuery = `
SELECT d.full_date AS day, count() AS post_count, sum(m.view_count) AS daily_views
FROM fct_messages m
JOIN dim_channels c ON m.channel_key = c.channel_key
JOIN dim_dates d ON m.date_key = d.date_key
WHERE c.channel_name = ?
GROUP BY day
ORDER BY day DESC`

// GetChannelActivity returns daily post counts and view sums for one channel.
// Unknown channels produce an empty result, not an error.
func GetChannelActivity(c *gin.Context) {
	channel := c.Param("channel")
	if !warehouseReady(c) {
		return
	}

	start := time.Now()
	rows, err := clickhouse.QueryContext(c.Request.Context(), channelActivityQuery, channel)
	observeQuery("channel_activity", start, err)
	if err != nil {
		logger.WithFields(logging.Fields{
			"channel": channel,
			"error":   err,
		}).Error("Failed to fetch channel activity from ClickHouse")
		c.JSON(http.StatusInternalServerError, common.ErrorResponse{Error: "Failed to fetch channel activity"})
		return
	}
	defer rows.Close()

	days := analytics.ChannelActivityResponse{}
	for rows.Next() {
		var d analytics.ChannelActivityDay
		if err := rows.Scan(&d.Day, &d.PostCount, &d.DailyViews); err != nil {
			logger.WithError(err).Error("Failed to scan channel activity row")
			continue
		}
		days = append(days, d)
	}
	c.JSON(http.StatusOK, days)
}

const searchMessagesQuery = `
SELECT m.message_id, c.channel_name, d.full_date AS day, m.message_text, m.view_count
FROM fct_messages m
JOIN dim_channels c ON m.channel_key = c.channel_key
JOIN dim_dates d ON m.date_key = d.date_key
WHERE positionCaseInsensitive(m.message_text, ?) > 0
ORDER BY m.date_key DESC, m.message_id DESC
LIMIT ?`

// SearchMessages returns facts whose text contains the query term,
// case-insensitive, newest first
func SearchMessages(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		c.JSON(http.StatusBadRequest, common.ErrorResponse{Error: "Query parameter 'query' is required"})
		return
	}
	limit, ok := parseLimit(c, 50)
	if !ok {
		return
	}
	if !warehouseReady(c) {
		return
	}

	start := time.Now()
	rows, err := clickhouse.QueryContext(c.Request.Context(), searchMessagesQuery, query, limit)
	observeQuery("search_messages", start, err)
	if err != nil {
		logger.WithFields(logging.Fields{
			"query": query,
			"error": err,
		}).Error("Failed to search messages in ClickHouse")
		c.JSON(http.StatusInternalServerError, common.ErrorResponse{Error: "Failed to search messages"})
		return
	}
	defer rows.Close()

	hits := analytics.MessageSearchResponse{}
	for rows.Next() {
		var h analytics.MessageSearchHit
		if err := rows.Scan(&h.MessageID, &h.ChannelName, &h.Day, &h.MessageText, &h.ViewCount); err != nil {
			logger.WithError(err).Error("Failed to scan message search row")
			continue
		}
		hits = append(hits, h)
	}
	c.JSON(http.StatusOK, hits)
}

const visualContentQuery = `
SELECT c.channel_name,
       count() AS detection_count,
       uniqExact(i.message_id) AS messages_with_media,
       anyHeavy(i.detected_class) AS primary_class,
       round(avg(i.confidence_score), 2) AS avg_confidence
FROM fct_message_detections i
JOIN dim_channels c ON i.channel_key = c.channel_key
GROUP BY c.channel_name
ORDER BY detection_count DESC, c.channel_name`

// GetVisualContent returns per-channel image detection statistics
func GetVisualContent(c *gin.Context) {
	if !warehouseReady(c) {
		return
	}

	start := time.Now()
	rows, err := clickhouse.QueryContext(c.Request.Context(), visualContentQuery)
	observeQuery("visual_content", start, err)
	if err != nil {
		logger.WithError(err).Error("Failed to fetch visual content stats from ClickHouse")
		c.JSON(http.StatusInternalServerError, common.ErrorResponse{Error: "Failed to fetch visual content stats"})
		return
	}
	defer rows.Close()

	stats := analytics.VisualContentResponse{}
	for rows.Next() {
		var s analytics.VisualContentStat
		if err := rows.Scan(&s.ChannelName, &s.DetectionCount, &s.MessagesWithMedia, &s.PrimaryClass, &s.AvgConfidence); err != nil {
			logger.WithError(err).Error("Failed to scan visual content row")
			continue
		}
		stats = append(stats, s)
	}
	c.JSON(http.StatusOK, stats)
}

// GetLatestRun returns the most recent pipeline run with its validation results
func GetLatestRun(c *gin.Context) {
	start := time.Now()
	run, results, err := runs.Latest(c.Request.Context())
	observeQuery("latest_run", start, err)
	if errors.Is(err, runlog.ErrNoRuns) {
		c.JSON(http.StatusNotFound, common.ErrorResponse{Error: "No pipeline runs recorded yet"})
		return
	}
	if err != nil {
		logger.WithError(err).Error("Failed to fetch latest run")
		c.JSON(http.StatusInternalServerError, common.ErrorResponse{Error: "Failed to fetch latest run"})
		return
	}
	if results == nil {
		results = []models.ValidationResult{}
	}
	c.JSON(http.StatusOK, analytics.RunStatusResponse{Run: *run, ValidationResults: results})
}

// warehouseReady blocks mart reads while the latest run sits in the
// validation_failed state. An empty ledger or a ledger error does not block.
func warehouseReady(c *gin.Context) bool {
	run, err := runs.LatestRun(c.Request.Context())
	if err != nil {
		if !errors.Is(err, runlog.ErrNoRuns) {
			logger.WithError(err).Warn("Could not determine latest run status")
		}
		return true
	}
	if run.Status != models.RunStatusValidationFailed {
		return true
	}
	c.JSON(http.StatusServiceUnavailable, common.ErrorResponse{
		Error:   "Latest pipeline run failed validation; marts are withheld until a clean run",
		Code:    "warehouse_not_validated",
		Details: map[string]interface{}{"run_id": run.RunID},
	})
	return false
}

func parseLimit(c *gin.Context, fallback int) (int, bool) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(fallback)))
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, common.ErrorResponse{Error: "Invalid limit parameter"})
		return 0, false
	}
	return limit, true
}

func observeQuery(queryType string, start time.Time, err error) {
	if metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueries.WithLabelValues(queryType, status).Inc()
	metrics.DBDuration.WithLabelValues(queryType).Observe(time.Since(start).Seconds())
	metrics.DBConnections.WithLabelValues("postgres").Set(float64(postgres.Stats().OpenConnections))
	metrics.DBConnections.WithLabelValues("clickhouse").Set(float64(clickhouse.Stats().OpenConnections))
}
