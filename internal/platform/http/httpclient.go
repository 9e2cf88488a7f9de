// Package http はアウトバウンド通信（オブジェクトストレージなど）用のHTTPクライアント設定を提供します。
package http

import (
	"net"
	"net/http"
	"time"
)

// ConfigureTransport は接続プールとタイムアウトをトランスポートに設定します。
// TLSClientConfigには触れないため、呼び出し側（SDKのCAバンドル設定など）が設定したルートCAは保持されます。
//
//   - Expect: 100-continue は1秒待って本文送信に進む
//   - 同一ホスト（バケットのエンドポイント）向けのアイドル接続を多めに保持する
func ConfigureTransport(t *http.Transport) {
	t.Proxy = http.ProxyFromEnvironment
	t.DialContext = (&net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext
	t.ForceAttemptHTTP2 = true
	t.MaxIdleConns = 100
	t.MaxIdleConnsPerHost = 32
	t.IdleConnTimeout = 90 * time.Second
	t.TLSHandshakeTimeout = 5 * time.Second
	t.ExpectContinueTimeout = time.Second
}
