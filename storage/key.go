package storage

import (
	"fmt"
	"strings"
)

// Key 解析后的逻辑路径：ownerId/fileName 两段
type Key struct {
	Owner string
	Name  string
}

// ParseKey 解析并校验逻辑路径
// 要求恰好两段（owner/filename），拒绝空段、`..` 和分隔符以外的路径操纵
func ParseKey(logicalPath string) (Key, error) {
	if logicalPath == "" {
		return Key{}, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}

	parts := strings.Split(logicalPath, "/")
	if len(parts) != 2 {
		return Key{}, fmt.Errorf("%w: expected owner/filename, got %d segment(s)", ErrInvalidPath, len(parts))
	}

	for _, part := range parts {
		if !isValidSegment(part) {
			return Key{}, fmt.Errorf("%w: %q", ErrInvalidPath, logicalPath)
		}
	}

	return Key{Owner: parts[0], Name: parts[1]}, nil
}

// String 返回逻辑路径形式 owner/filename
func (k Key) String() string {
	return k.Owner + "/" + k.Name
}

// isValidSegment 校验单个路径段是否合法
func isValidSegment(segment string) bool {
	if segment == "" || segment == "." || segment == ".." {
		return false
	}

	if strings.Contains(segment, "..") {
		return false
	}

	for _, r := range segment {
		if !((r >= 'a' && r <= 'z') ||
			(r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') ||
			r == '-' || r == '_' || r == '.') {
			return false
		}
	}

	return true
}
