package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"star-spark/internal/common"
	"star-spark/internal/domain"
)

const (
	defaultEndpoint = "https://api.sendgrid.com/v3/mail/send"
	digestSubject   = "✨ Your Star Spark digest is ready"
)

// Mailer 实现了 port.Mailer 接口 (SendGrid v3 Mail Send API)
// 不依赖全局状态：是否配置好用 Configured() 显式暴露给调用方
type Mailer struct {
	apiKey     string
	from       string
	appBaseURL string
	endpoint   string
	client     *http.Client
	retryOpts  []common.Option
}

// NewMailer 创建邮件投递器，apiKey 为空时 Configured() 返回 false
func NewMailer(apiKey, from, appBaseURL string) *Mailer {
	if apiKey == "" {
		log.Println("⚠️ 警告: SENDGRID_API_KEY 为空，摘要邮件将全部跳过！")
	}
	return &Mailer{
		apiKey:     apiKey,
		from:       from,
		appBaseURL: appBaseURL,
		endpoint:   defaultEndpoint,
		client:     &http.Client{Timeout: 15 * time.Second},
		retryOpts: []common.Option{
			common.WithMaxRetries(3),
			common.WithInitialDelay(500 * time.Millisecond),
		},
	}
}

// Configured 投递通道是否可用
func (m *Mailer) Configured() bool {
	return m.apiKey != ""
}

// SendDigest 渲染并发送摘要邮件 (带重试机制)
// 投递失败返回 DELIVERY_ERROR，调用方据此跳过记账
func (m *Mailer) SendDigest(ctx context.Context, to string, digest *domain.Digest, username string) error {
	if !m.Configured() {
		return common.NewError(common.ErrCodeDelivery, "投递通道未配置")
	}

	html := renderDigestEmail(digest, username, m.appBaseURL)

	payload := map[string]interface{}{
		"personalizations": []map[string]interface{}{
			{"to": []map[string]string{{"email": to}}},
		},
		"from":    map[string]string{"email": m.from},
		"subject": digestSubject,
		"content": []map[string]string{
			{"type": "text/html", "value": html},
		},
	}

	body, _ := json.Marshal(payload)
	err := common.Do(ctx, func() error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
		if reqErr != nil {
			return reqErr
		}
		req.Header.Set("Authorization", "Bearer "+m.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, postErr := m.client.Do(req)
		if postErr != nil {
			return postErr
		}
		defer resp.Body.Close()

		// SendGrid 成功入队返回 202
		if resp.StatusCode >= 300 {
			return fmt.Errorf("SendGrid API 报错: 状态码 %d", resp.StatusCode)
		}
		return nil
	}, m.retryOpts...)
	if err != nil {
		return common.WrapError(common.ErrCodeDelivery,
			fmt.Sprintf("发送摘要邮件到 %s 失败", to), err)
	}

	return nil
}
