package middleware

import (
	"net"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/seancfoley/ipaddress-go/ipaddr"
	log "github.com/sirupsen/logrus"
)

// IPv6 clients are keyed by their /64 since a single host usually owns the
// whole prefix.
const ipv6SubjectPrefix = 64

// ProxyList holds the proxies whose forwarding headers are believed.
type ProxyList struct {
	trieV4 *ipaddr.IPv4AddressTrie
	trieV6 *ipaddr.IPv6AddressTrie
	size   int
}

// NewProxyList parses addresses and CIDR blocks, skipping invalid entries.
func NewProxyList(entries []string) *ProxyList {
	list := &ProxyList{
		trieV4: &ipaddr.IPv4AddressTrie{},
		trieV6: &ipaddr.IPv6AddressTrie{},
	}

	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		address, err := ipaddr.NewIPAddressString(entry).ToAddress()
		if err != nil || address == nil {
			log.WithField("entry", entry).Warn("Ignoring invalid trusted proxy")
			continue
		}
		if address.IsIPv4() {
			list.trieV4.Add(address.ToIPv4())
		} else if address.IsIPv6() {
			list.trieV6.Add(address.ToIPv6())
		}
		list.size++
	}

	return list
}

// ProxyListFromEnv reads the comma separated TRUSTED_PROXIES variable.
func ProxyListFromEnv() *ProxyList {
	raw := os.Getenv("TRUSTED_PROXIES")
	if raw == "" {
		return NewProxyList(nil)
	}
	return NewProxyList(strings.Split(raw, ","))
}

// Contains reports whether ip is a trusted proxy. An empty list trusts no
// peer.
func (l *ProxyList) Contains(ip string) bool {
	if l == nil || l.size == 0 {
		return false
	}
	address, err := ipaddr.NewIPAddressString(ip).ToAddress()
	if err != nil || address == nil {
		return false
	}
	return (address.IsIPv4() && l.trieV4.ElementContains(address.ToIPv4())) ||
		(address.IsIPv6() && l.trieV6.ElementContains(address.ToIPv6()))
}

var trustedProxies *ProxyList

// SetTrustedProxies replaces the proxy list used by ClientIP. Call it once
// during startup.
func SetTrustedProxies(list *ProxyList) {
	trustedProxies = list
}

// ClientIP returns the normalized address the request originates from.
// Forwarding headers are only believed when the peer is a trusted proxy.
// X-Forwarded-For is walked right to left and the first hop outside the
// proxy list wins; X-Real-IP and CF-Connecting-IP are used when it is absent.
func ClientIP(c *fiber.Ctx) string {
	return clientIP(c, trustedProxies)
}

func clientIP(c *fiber.Ctx, proxies *ProxyList) string {
	remote := remoteAddr(c)
	if !proxies.Contains(remote) {
		return NormalizeIP(remote)
	}

	if forwarded := c.Get("X-Forwarded-For"); forwarded != "" {
		if ip := forwardedClient(forwarded, proxies); ip != "" {
			return NormalizeIP(ip)
		}
	}
	if realIP := c.Get("X-Real-IP"); realIP != "" {
		return NormalizeIP(realIP)
	}
	if cfIP := c.Get("CF-Connecting-IP"); cfIP != "" {
		return NormalizeIP(cfIP)
	}

	return NormalizeIP(remote)
}

// forwardedClient returns the rightmost hop that is not a trusted proxy, or
// the leftmost hop when the whole chain is trusted.
func forwardedClient(header string, proxies *ProxyList) string {
	hops := strings.Split(header, ",")
	oldest := ""
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if !proxies.Contains(hop) {
			return hop
		}
		oldest = hop
	}
	return oldest
}

func remoteAddr(c *fiber.Ctx) string {
	raw := c.Context().RemoteAddr().String()
	host, _, err := net.SplitHostPort(raw)
	if err != nil {
		return raw
	}
	return host
}

// NormalizeIP canonicalizes ip. IPv6 addresses collapse to their /64 block.
// Unparseable input is returned trimmed.
func NormalizeIP(ip string) string {
	ip = strings.TrimSpace(ip)
	address, err := ipaddr.NewIPAddressString(ip).ToAddress()
	if err != nil || address == nil {
		return ip
	}
	if address.IsIPv6() {
		return address.ToPrefixBlockLen(ipv6SubjectPrefix).ToCanonicalString()
	}
	return address.ToCanonicalString()
}
