package session

// Keys are derived from the channel user id.

// SessionKey is the key of the session record.
func SessionKey(userID string) string { return userID }

// HistoryKey is the key of the reply history.
func HistoryKey(userID string) string { return userID + "_history" }

// NavKey is the key of the navigation-control entry.
func NavKey(userID string) string { return userID + "_nav" }

// BookmarkKey is the key of the pending back offset.
func BookmarkKey(userID string) string { return "bookmark_" + userID }

// QuizSessionKey is the key of the quiz cache.
func QuizSessionKey(userID string) string { return userID + "_quiz_session" }

// DerivedKeys lists every key owned by a user, in purge order.
func DerivedKeys(userID string) []string {
	return []string{
		SessionKey(userID),
		QuizSessionKey(userID),
		HistoryKey(userID),
		BookmarkKey(userID),
		NavKey(userID),
	}
}
