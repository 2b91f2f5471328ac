package clickhouse

import (
	"strings"
	"testing"
	"time"
)

func TestBuildDSN(t *testing.T) {
	dsn := buildDSN(ClientConfig{
		Host: "ch", Port: 9000, Database: "lenxys", User: "default", Password: "pw",
		DialTimeout: 5 * time.Second, MaxExecTime: 60 * time.Second,
		AsyncInsert: true, WaitForAsync: true,
	})
	if !strings.HasPrefix(dsn, "clickhouse://default:pw@ch:9000/lenxys?") {
		t.Fatalf("unexpected dsn prefix: %s", dsn)
	}
	for _, part := range []string{"dial_timeout=5s", "max_execution_time=60", "async_insert=1", "wait_for_async_insert=1"} {
		if !strings.Contains(dsn, part) {
			t.Fatalf("dsn %s missing %s", dsn, part)
		}
	}
}

func TestBuildDSNHTTP(t *testing.T) {
	dsn := buildDSN(ClientConfig{Host: "ch", Port: 8123, Database: "db", UseHTTP: true})
	if dsn != "http://:@ch:8123/db" {
		t.Fatalf("unexpected dsn: %s", dsn)
	}
}
