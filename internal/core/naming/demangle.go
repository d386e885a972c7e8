package naming

import (
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	pkgif "github.com/dep2p/go-dep2p-graph/pkg/interfaces"
)

// 传输层名称前缀
const (
	// TopicPrefix 普通主题前缀
	TopicPrefix = "rt"
	// ServiceRequestPrefix 服务请求主题前缀
	ServiceRequestPrefix = "rq"
	// ServiceResponsePrefix 服务响应主题前缀
	ServiceResponsePrefix = "rr"

	// ServiceRequestSuffix 请求主题后缀
	ServiceRequestSuffix = "Request"
	// ServiceResponseSuffix 响应主题后缀
	ServiceResponseSuffix = "Reply"

	typeNamespaceSep = "::dds_::"
)

// DefaultCacheSize 默认缓存容量
const DefaultCacheSize = 1024

var _ pkgif.Demangler = (*Demangler)(nil)

// Demangler 带缓存的名称反混淆器（并发安全）
type Demangler struct {
	topics *lru.Cache[string, string]
	types  *lru.Cache[string, string]
}

// NewDemangler 创建反混淆器
func NewDemangler(cacheSize int) (*Demangler, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	topics, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create topic cache: %w", err)
	}
	typeCache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create type cache: %w", err)
	}
	return &Demangler{topics: topics, types: typeCache}, nil
}

// DemangleTopic 还原主题名，非框架主题返回空字符串
func (d *Demangler) DemangleTopic(name string) string {
	if v, ok := d.topics.Get(name); ok {
		return v
	}
	v := DemangleTopic(name)
	d.topics.Add(name, v)
	return v
}

// DemangleType 还原类型名，非框架类型原样返回
func (d *Demangler) DemangleType(name string) string {
	if v, ok := d.types.Get(name); ok {
		return v
	}
	v := DemangleType(name)
	d.types.Add(name, v)
	return v
}

// ============================================================================
//                              无缓存转换
// ============================================================================

// DemangleTopic 去除 rt 前缀，非框架主题返回空字符串
func DemangleTopic(name string) string {
	return stripPrefix(name, TopicPrefix)
}

// MangleTopic 为主题名加上 rt 前缀
func MangleTopic(name string) string {
	return TopicPrefix + ensureLeadingSlash(name)
}

// MangleServiceRequest 生成服务请求主题名
func MangleServiceRequest(service string) string {
	return ServiceRequestPrefix + ensureLeadingSlash(service) + ServiceRequestSuffix
}

// MangleServiceResponse 生成服务响应主题名
func MangleServiceResponse(service string) string {
	return ServiceResponsePrefix + ensureLeadingSlash(service) + ServiceResponseSuffix
}

// DemangleType 将 pkg::msg::dds_::Type_ 还原为 pkg/msg/Type
//
// 不含 ::dds_:: 的类型名原样返回。
func DemangleType(name string) string {
	idx := strings.LastIndex(name, typeNamespaceSep)
	if idx < 0 {
		return name
	}
	ns := strings.ReplaceAll(name[:idx], "::", "/")
	typeName := strings.TrimSuffix(name[idx+len(typeNamespaceSep):], "_")
	if ns == "" || typeName == "" {
		return ""
	}
	return ns + "/" + typeName
}

// MangleType 将 pkg/msg/Type 转换为 pkg::msg::dds_::Type_
func MangleType(name string) string {
	idx := strings.LastIndex(name, "/")
	if idx < 0 {
		return name
	}
	ns := strings.ReplaceAll(name[:idx], "/", "::")
	return ns + typeNamespaceSep + name[idx+1:] + "_"
}

func stripPrefix(name, prefix string) string {
	if !strings.HasPrefix(name, prefix+"/") {
		return ""
	}
	return name[len(prefix):]
}

func ensureLeadingSlash(name string) string {
	if strings.HasPrefix(name, "/") {
		return name
	}
	return "/" + name
}
