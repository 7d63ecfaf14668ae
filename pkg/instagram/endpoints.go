package instagram

import "fmt"

const (
	// BaseURL is the base URL for Instagram
	BaseURL = "https://www.instagram.com"
)

// ProfileURL constructs the public profile URL for a user
func ProfileURL(username string) string {
	return profileURL(BaseURL, username)
}

func profileURL(base, username string) string {
	if username == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s/", base, username)
}
