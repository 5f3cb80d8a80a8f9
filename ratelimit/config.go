package ratelimit

import (
	"fmt"
	"strings"
	"time"
)

// Config is the throttling rule applied to a key. A zero BlockDuration means
// the key is denied only until its window expires.
type Config struct {
	MaxAttempts   int           `json:"max_attempts"`
	Window        time.Duration `json:"window"`
	BlockDuration time.Duration `json:"block_duration,omitempty"`
}

// normalized clamps non-positive values to the smallest usable rule.
func (c Config) normalized() Config {
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 1
	}
	if c.Window < time.Millisecond {
		c.Window = time.Millisecond
	}
	if c.BlockDuration < 0 {
		c.BlockDuration = 0
	}
	return c
}

// ==================== POLICY REGISTRY ====================

// Policy names one of the product's fixed throttling rules.
type Policy int

const (
	Login Policy = iota
	Signup
	PasswordReset
	PostCreate
	CommentCreate
	ForumTopic
	ForumReply
	ContactForm
	EmailSend
	ImageUpload
	APICall
)

type policyDef struct {
	name   string
	prefix string
	config Config
}

var registry = [...]policyDef{
	Login:         {"LOGIN", "login:", Config{MaxAttempts: 5, Window: 15 * time.Minute, BlockDuration: 15 * time.Minute}},
	Signup:        {"SIGNUP", "signup:", Config{MaxAttempts: 3, Window: time.Hour, BlockDuration: time.Hour}},
	PasswordReset: {"PASSWORD_RESET", "password:reset:", Config{MaxAttempts: 3, Window: time.Hour}},
	PostCreate:    {"POST_CREATE", "post:create:", Config{MaxAttempts: 5, Window: time.Hour}},
	CommentCreate: {"COMMENT_CREATE", "comment:create:", Config{MaxAttempts: 10, Window: 10 * time.Minute}},
	ForumTopic:    {"FORUM_TOPIC", "forum:topic:", Config{MaxAttempts: 5, Window: time.Hour}},
	ForumReply:    {"FORUM_REPLY", "forum:reply:", Config{MaxAttempts: 15, Window: 10 * time.Minute}},
	ContactForm:   {"CONTACT_FORM", "contact:", Config{MaxAttempts: 3, Window: time.Hour}},
	EmailSend:     {"EMAIL_SEND", "email:send:", Config{MaxAttempts: 5, Window: time.Hour}},
	ImageUpload:   {"IMAGE_UPLOAD", "image:upload:", Config{MaxAttempts: 10, Window: time.Hour}},
	APICall:       {"API_CALL", "api:", Config{MaxAttempts: 100, Window: time.Minute}},
}

// Policies lists every registered policy in declaration order.
func Policies() []Policy {
	out := make([]Policy, len(registry))
	for i := range registry {
		out[i] = Policy(i)
	}
	return out
}

func (p Policy) valid() bool {
	return p >= 0 && int(p) < len(registry)
}

func (p Policy) Config() Config {
	if !p.valid() {
		return APICall.Config()
	}
	return registry[p].config
}

func (p Policy) String() string {
	if !p.valid() {
		return fmt.Sprintf("Policy(%d)", int(p))
	}
	return registry[p].name
}

// Key builds the limiter key for subject, e.g. Login.Key("a@b.com") is
// "login:a@b.com".
func (p Policy) Key(subject string) string {
	if !p.valid() {
		return subject
	}
	return registry[p].prefix + subject
}

// ParsePolicy resolves a policy by its upper-case name. Matching is case-insensitive.
func ParsePolicy(name string) (Policy, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for i, def := range registry {
		if def.name == name {
			return Policy(i), nil
		}
	}
	return 0, fmt.Errorf("unknown rate limit policy %q", name)
}
