package nag

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/jrsteele09/go-nagbot/tasks"
)

// BasePolicy nags at most once per day of lateness relative to the last reminder
const BasePolicy = "base"

var ErrUnknownPolicy = errors.New("unknown nag policy")

// Decision is the outcome of evaluating a policy for one task
type Decision struct {
	Notify       bool
	DaysSinceDue int // whole days between the last reminder and the due date
	DaysUntilDue int // negative once the task is overdue
}

// Policy decides whether item should be surfaced at now
type Policy func(item tasks.Item, now time.Time) Decision

var policies = map[string]Policy{
	BasePolicy: basePolicy,
}

// LookupPolicy returns the named policy
func LookupPolicy(name string) (Policy, error) {
	p, ok := policies[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknownPolicy, name, PolicyNames())
	}
	return p, nil
}

// PolicyNames lists the registered policies in sorted order
func PolicyNames() []string {
	names := make([]string, 0, len(policies))
	for name := range policies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Evaluate runs the named policy against item
func Evaluate(name string, item tasks.Item, now time.Time) (Decision, error) {
	p, err := LookupPolicy(name)
	if err != nil {
		return Decision{}, err
	}
	return p(item, now), nil
}

func basePolicy(item tasks.Item, now time.Time) Decision {
	if item.DueAt.IsZero() {
		return Decision{}
	}
	lastNagged := item.LastNaggedAt
	if lastNagged.IsZero() {
		lastNagged = time.Unix(0, 0)
	}

	sinceDue := wholeDays(item.DueAt.Sub(lastNagged))
	return Decision{
		Notify:       sinceDue > 0,
		DaysSinceDue: sinceDue,
		DaysUntilDue: wholeDays(item.DueAt.Sub(now)),
	}
}

// wholeDays floors d to days, so 1.5 days is 1 and -0.5 days is -1
func wholeDays(d time.Duration) int {
	return int(math.Floor(d.Hours() / 24))
}
