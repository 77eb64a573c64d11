package mongodb

import (
	"net"
	"net/url"
	"strconv"
)

// BuildURI 由离散字段拼出连接串；显式配置的 URI 优先。
func BuildURI(opts *Options) string {
	if opts.URI != "" {
		return opts.URI
	}

	u := url.URL{Scheme: "mongodb", Host: opts.Host, Path: "/"}
	if opts.Port != 0 {
		u.Host = net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port))
	}
	switch {
	case opts.Username != "" && opts.Password != "":
		u.User = url.UserPassword(opts.Username, opts.Password)
	case opts.Username != "":
		u.User = url.User(opts.Username)
	}

	q := url.Values{}
	// admin 是驱动默认的认证库
	if u.User != nil && opts.AuthSource != "" && opts.AuthSource != "admin" {
		q.Set("authSource", opts.AuthSource)
	}
	if opts.ReplicaSet != "" {
		q.Set("replicaSet", opts.ReplicaSet)
	}
	if opts.Direct {
		q.Set("directConnection", "true")
	}
	u.RawQuery = q.Encode()
	return u.String()
}
