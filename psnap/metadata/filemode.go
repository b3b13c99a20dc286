package metadata

import (
	"fmt"
	"syscall"
)

// filemodeRule maps a raw st_mode bitmask to its output character. A rule
// matches when every bit of the mask is set.
type filemodeRule struct {
	mask uint32
	char byte
}

// filemodeTable holds one ordered rule group per output character of the
// 10-character symbolic rendering. Within a group the first matching rule
// wins; `-` is emitted when nothing matches. Rule order encodes the
// setuid/setgid/sticky tie-breaks: the combined execute+special mask is
// tested before the special bit alone, which is tested before the plain
// execute bit.
var filemodeTable = [10][]filemodeRule{
	{
		{syscall.S_IFLNK, 'l'},
		{syscall.S_IFREG, '-'},
		{syscall.S_IFBLK, 'b'},
		{syscall.S_IFDIR, 'd'},
		{syscall.S_IFCHR, 'c'},
		{syscall.S_IFIFO, 'p'},
	},

	{{syscall.S_IRUSR, 'r'}},

	{{syscall.S_IWUSR, 'w'}},

	{
		{syscall.S_IXUSR | syscall.S_ISUID, 's'},
		{syscall.S_ISUID, 'S'},
		{syscall.S_IXUSR, 'x'},
	},

	{{syscall.S_IRGRP, 'r'}},

	{{syscall.S_IWGRP, 'w'}},

	{
		{syscall.S_IXGRP | syscall.S_ISGID, 's'},
		{syscall.S_ISGID, 'S'},
		{syscall.S_IXGRP, 'x'},
	},

	{{syscall.S_IROTH, 'r'}},

	{{syscall.S_IWOTH, 'w'}},

	{
		{syscall.S_IXOTH | syscall.S_ISVTX, 't'},
		{syscall.S_ISVTX, 'T'},
		{syscall.S_IXOTH, 'x'},
	},
}

// FileModeString renders raw st_mode bits as the classic ls-style
// 10-character symbolic form.
//
// Example: 0o40750 -> drwxr-x---
func FileModeString(mode uint32) string {
	var out [10]byte
	for i, rules := range filemodeTable {
		out[i] = '-'
		for _, rule := range rules {
			if mode&rule.mask == rule.mask {
				out[i] = rule.char
				break
			}
		}
	}
	return string(out[:])
}

// OctalModeString renders the permission bits of a raw st_mode as exactly
// three octal digits, discarding type bits and folding the setuid/setgid/
// sticky digit away (0o4755 renders as "755").
func OctalModeString(mode uint32) string {
	s := fmt.Sprintf("%03o", mode&0o7777)
	return s[len(s)-3:]
}
