package config

// NotifxConfig configures outbound email.
type NotifxConfig struct {
	Provider    string // console | ses
	FromAddress string
	FromName    string
}

func loadNotifxConfig() NotifxConfig {
	return NotifxConfig{
		Provider:    getEnv("NOTIFX_PROVIDER", "console"),
		FromAddress: getEnv("NOTIFX_FROM_ADDRESS", "no-reply@credit-intake.local"),
		FromName:    getEnv("NOTIFX_FROM_NAME", "Credit Intake"),
	}
}
