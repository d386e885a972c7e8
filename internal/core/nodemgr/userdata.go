package nodemgr

import (
	"fmt"
	"strings"
)

// FormatUserData 生成参与者 user_data
func FormatUserData(name, namespace string) []byte {
	return []byte(fmt.Sprintf("name=%s;namespace=%s;", name, namespace))
}

// ParseUserData 解析 key=value; 形式的 user_data
//
// 未知键忽略；没有 name 键时 ok 为 false。
func ParseUserData(data []byte) (name, namespace string, ok bool) {
	for _, pair := range strings.Split(string(data), ";") {
		key, value, found := strings.Cut(pair, "=")
		if !found {
			continue
		}
		switch key {
		case "name":
			name = value
		case "namespace":
			namespace = value
		}
	}
	return name, namespace, name != ""
}
