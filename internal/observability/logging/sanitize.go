package logging

import (
	"regexp"
)

var (
	// Webhook URLはトークンがパスに含まれるため、パス部分をマスクする
	slackWebhookPattern   = regexp.MustCompile(`(https://hooks\.slack\.com/services/)[A-Za-z0-9/_-]+`)
	discordWebhookPattern = regexp.MustCompile(`(https://(?:discord|discordapp)\.com/api/webhooks/[0-9]+/)[A-Za-z0-9._-]+`)

	// データベースパスワードパターン（DSN内）
	dbPasswordPattern = regexp.MustCompile(`://([^:/@]+):([^@]+)@`)

	// AWSアクセスキーID
	awsAccessKeyPattern = regexp.MustCompile(`\b(AKIA|ASIA)[A-Z0-9]{16}\b`)
)

// SanitizeError returns the error message with webhook tokens, DSN
// passwords and AWS access key IDs masked. Use it whenever an error that may
// carry configuration is logged.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error())
}

// SanitizeString applies the SanitizeError masks to an arbitrary string.
func SanitizeString(msg string) string {
	msg = slackWebhookPattern.ReplaceAllString(msg, "${1}****")
	msg = discordWebhookPattern.ReplaceAllString(msg, "${1}****")
	msg = dbPasswordPattern.ReplaceAllString(msg, "://$1:****@")
	msg = awsAccessKeyPattern.ReplaceAllString(msg, "${1}****")
	return msg
}
