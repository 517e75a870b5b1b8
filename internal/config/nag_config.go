package config

import "time"

type NagConfig interface {
	GetNagPolicy() string
	GetNagTag() string
	GetNagInterval(dev bool) time.Duration
	GetTasksBaseURL() string
	GetRetryAttempts() int
	GetRetryDelay() time.Duration
}

type Nag struct {
	file nagFile
}

var _ NagConfig = Nag{}

func (n Nag) GetNagPolicy() string {
	return pick("NAG_POLICY", n.file.Policy, "base")
}

// GetNagTag is the task category that opts a task into reminders
func (n Nag) GetNagTag() string {
	return pick("NAG_TAG", n.file.Tag, "nag")
}

// GetNagInterval is the scheduler period; development runs tick far more often
func (n Nag) GetNagInterval(dev bool) time.Duration {
	if dev {
		return pickDuration("NAG_INTERVAL", n.file.IntervalDev, time.Minute)
	}
	return pickDuration("NAG_INTERVAL", n.file.IntervalProd, time.Hour)
}

func (n Nag) GetTasksBaseURL() string {
	return pick("TASKS_BASE_URL", n.file.TasksBaseURL, "https://graph.microsoft.com/v1.0/me/todo")
}

func (n Nag) GetRetryAttempts() int {
	return pickInt("RETRY_ATTEMPTS", n.file.RetryAttempts, 3)
}

func (n Nag) GetRetryDelay() time.Duration {
	return pickDuration("RETRY_DELAY", n.file.RetryDelay, 500*time.Millisecond)
}
