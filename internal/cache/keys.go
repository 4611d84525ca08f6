package cache

import "fmt"

func LeaderboardKey(days int) string {
	return fmt.Sprintf("report:leaderboard:%d", days)
}

func BreakdownKey(days int) string {
	return fmt.Sprintf("report:breakdown:%d", days)
}

func RateLimitKey(clientIP string) string {
	return fmt.Sprintf("ratelimit:%s", clientIP)
}
