// Package opsgin exposes a small operator HTTP surface next to the bot:
// health and registry/entitlement stats. It is read-only and disabled unless
// an address is configured.
package opsgin

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/uptrace/bun"

	"github.com/open-rails/vipgate/content"
	"github.com/open-rails/vipgate/vip"
)

// Router builds the ops engine. When token is non-empty, /api requires it as
// a bearer token; /healthz stays open for probes.
func Router(db *bun.DB, vips *vip.Store, registry *content.Store, token string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.Use(requireToken(token))

	api.GET("/stats", func(c *gin.Context) {
		items, err := registry.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "storage unavailable"})
			return
		}
		ents, err := vips.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "storage unavailable"})
			return
		}
		now := time.Now()
		active, expired := 0, 0
		for i := range ents {
			if ents[i].ActiveAt(now) {
				active++
			} else {
				expired++
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"videos":      len(items),
			"vip_active":  active,
			"vip_expired": expired,
		})
	})

	api.GET("/vips", func(c *gin.Context) {
		ents, err := vips.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "storage unavailable"})
			return
		}
		c.JSON(http.StatusOK, ents)
	})

	api.GET("/videos", func(c *gin.Context) {
		items, err := registry.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "storage unavailable"})
			return
		}
		c.JSON(http.StatusOK, items)
	})

	return r
}

func requireToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		got := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if got != token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
