package chat

var groupEmoji = []string{"🦊", "🐙", "🦉", "🐝", "🐳", "🦋", "🐢", "🦜", "🐧", "🦁", "🐼", "🦄"}

// GroupAvatar returns the avatar of a group: the server-provided ref when
// present, otherwise an emoji derived from the group id so the same group
// always looks the same.
func GroupAvatar(id int64, ref string) string {
	if ref != "" {
		return ref
	}
	return groupEmoji[uint64(id)%uint64(len(groupEmoji))]
}
