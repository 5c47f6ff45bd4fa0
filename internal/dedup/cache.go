package dedup

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	gocache "github.com/patrickmn/go-cache"

	"github.com/hazardwatch/go-hazard-alerts/internal/models"
)

// DefaultCooldown is the minimum spacing between two alerts sharing a key.
const DefaultCooldown = 24 * time.Hour

// Cache remembers recently-alerted keys so repeated qualifying records do
// not produce alert storms. The monitor is the sole writer; go-cache gives
// us safe concurrent reads for free.
//
// Entries carry their alerted-at time as the value and are pruned against
// the injected clock rather than go-cache's wall-clock TTL, so cooldown
// behavior stays deterministic under a fake clock.
type Cache struct {
	cooldown time.Duration
	clock    clockwork.Clock
	entries  *gocache.Cache
}

func NewCache(cooldown time.Duration, clock clockwork.Clock) *Cache {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Cache{
		cooldown: cooldown,
		clock:    clock,
		entries:  gocache.New(gocache.NoExpiration, 0),
	}
}

// ShouldSuppress reports whether key was alerted within the cooldown.
func (c *Cache) ShouldSuppress(key string) bool {
	v, ok := c.entries.Get(key)
	if !ok {
		return false
	}
	return c.clock.Since(v.(time.Time)) < c.cooldown
}

// Record marks key as alerted now.
func (c *Cache) Record(key string) {
	c.entries.Set(key, c.clock.Now(), gocache.NoExpiration)
}

// PruneExpired drops entries older than the cooldown and returns how many
// were removed. Called once at the end of each monitoring cycle.
func (c *Cache) PruneExpired() int {
	now := c.clock.Now()
	removed := 0
	for key, item := range c.entries.Items() {
		if now.Sub(item.Object.(time.Time)) >= c.cooldown {
			c.entries.Delete(key)
			removed++
		}
	}
	return removed
}

func (c *Cache) Len() int {
	return c.entries.ItemCount()
}

// LocationKey collapses near-duplicate coordinates into one key by
// rounding to two decimals (roughly 1 km at the equator).
func LocationKey(category models.HazardCategory, loc models.Coordinates) string {
	return fmt.Sprintf("%s_%.2f_%.2f", category, loc.Latitude, loc.Longitude)
}

// WeatherKey keys weather-derived alerts by location plus the resulting
// alert category, so a rain alert and a wind alert from the same reading
// deduplicate independently.
func WeatherKey(loc models.Coordinates, category models.HazardCategory) string {
	return fmt.Sprintf("weather_%.2f_%.2f_%s", loc.Latitude, loc.Longitude, category)
}

// EventKey keys discrete events by their natural identifier, one alert per
// physical event no matter how often it is re-queried.
func EventKey(eventID string) string {
	return "seismic_" + eventID
}
