package config

import (
    "os"
    "strconv"
    "strings"
    "time"
)

// lookup returns the trimmed value of key and whether it was non-empty.
func lookup(key string) (string, bool) {
    v := strings.TrimSpace(os.Getenv(key))
    return v, v != ""
}

func envStr(key, fallback string) string {
    if v, ok := lookup(key); ok {
        return v
    }
    return fallback
}

// envBool accepts anything strconv.ParseBool does plus yes/no and on/off.
// Unrecognised values yield fallback.
func envBool(key string, fallback bool) bool {
    v, ok := lookup(key)
    if !ok {
        return fallback
    }
    switch strings.ToLower(v) {
    case "yes", "on":
        return true
    case "no", "off":
        return false
    }
    if b, err := strconv.ParseBool(v); err == nil {
        return b
    }
    return fallback
}

func envInt(key string, fallback int) int {
    v, ok := lookup(key)
    if !ok {
        return fallback
    }
    n, err := strconv.Atoi(v)
    if err != nil {
        return fallback
    }
    return n
}

// envDur parses Go duration syntax ("30s", "5m").
func envDur(key string, fallback time.Duration) time.Duration {
    v, ok := lookup(key)
    if !ok {
        return fallback
    }
    d, err := time.ParseDuration(v)
    if err != nil {
        return fallback
    }
    return d
}

// envList splits a comma separated variable, dropping blanks.
func envList(key, fallback string) []string {
    var out []string
    for _, p := range strings.Split(envStr(key, fallback), ",") {
        if p = strings.TrimSpace(p); p != "" {
            out = append(out, p)
        }
    }
    return out
}
