package mailer

import (
	"fmt"
	"strings"

	"star-spark/internal/domain"
)

// 卡片文案的兜底值
const (
	fallbackDescription = "You bookmarked this project for a reason — rediscover the spark!"
	fallbackLanguage    = "Multi-language nebula"
)

// renderDigestEmail 渲染摘要邮件的 HTML 正文
// 深色星空风格的单列邮件布局，按高亮组逐个铺卡片
func renderDigestEmail(digest *domain.Digest, username string, appBaseURL string) string {
	var content strings.Builder

	content.WriteString(fmt.Sprintf(`
<tr>
  <td style="padding-bottom: 24px;">
    <h1 style="margin: 0 0 8px 0; font-size: 28px; color: #e0f2fe;">%s</h1>
    <p style="margin: 0; font-size: 15px; line-height: 1.6; color: #cbd5f5;">%s</p>
  </td>
</tr>`, digest.Title, digest.Intro))

	for _, highlight := range digest.Highlights {
		content.WriteString(fmt.Sprintf(`
<tr>
  <td style="padding: 24px 0 8px 0;">
    <h2 style="margin: 0; font-size: 20px; color: #38bdf8;">%s</h2>
    <p style="margin: 4px 0 0 0; font-size: 13px; color: #94a3b8;">%s</p>
  </td>
</tr>`, highlight.Title, highlight.Tagline))

		for _, item := range highlight.Items {
			content.WriteString(renderRepoCard(item))
		}
	}

	content.WriteString(fmt.Sprintf(`
<tr>
  <td align="center" style="padding-top: 24px;">
    <a href="%s/dashboard" style="display: inline-block; border-radius: 9999px; background-color: #38bdf8; color: #020617; font-weight: 600; padding: 10px 24px; font-size: 14px; text-decoration: none;">Open Star Spark</a>
  </td>
</tr>`, appBaseURL))

	return baseLayout(content.String(), appBaseURL)
}

// renderRepoCard 单个仓库卡片
func renderRepoCard(item *domain.DigestItem) string {
	description := item.Description
	if description == "" {
		description = fallbackDescription
	}
	language := item.Language
	if language == "" {
		language = fallbackLanguage
	}

	return fmt.Sprintf(`
<tr>
  <td style="padding: 8px 0;">
    <table role="presentation" width="100%%" cellpadding="0" cellspacing="0" style="background: rgba(15, 23, 42, 0.9); border-radius: 16px; border: 1px solid rgba(51, 65, 85, 0.8); padding: 20px;">
      <tr>
        <td style="padding-bottom: 10px; font-size: 16px; font-weight: 600;">
          <a href="%s" style="color: #38bdf8; text-decoration: none;">%s</a>
        </td>
      </tr>
      <tr>
        <td style="color: #cbd5f5; font-size: 14px; line-height: 1.6;">%s</td>
      </tr>
      <tr>
        <td style="padding-top: 10px; font-size: 12px; color: #94a3b8;">
          <strong>Vibe:</strong> %s<br />
          <strong>Language:</strong> %s &bull; <strong>Stars:</strong> %d
        </td>
      </tr>
    </table>
  </td>
</tr>`, item.HTMLURL, item.FullName, description, item.Vibe, language, item.Stars)
}

// baseLayout 邮件的外层骨架 (头部 logo + 底部退订/设置链接)
func baseLayout(content string, appBaseURL string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
  <head>
    <meta charset="UTF-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1.0" />
    <title>Star Spark Digest</title>
  </head>
  <body style="margin: 0; font-family: 'Space Grotesk', 'Inter', -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif; background-color: #020617; color: #e0f2fe;">
    <table role="presentation" width="100%%" cellpadding="0" cellspacing="0" style="padding: 32px 0;">
      <tr>
        <td align="center">
          <table role="presentation" width="600" cellpadding="0" cellspacing="0" style="width: 600px; max-width: 90%%;">
            <tr>
              <td style="padding: 0 0 32px 0; text-align: center; font-size: 24px; font-weight: 700; letter-spacing: 0.03em;">✨ Star Spark</td>
            </tr>%s
            <tr>
              <td style="padding-top: 32px; text-align: center; color: #94a3b8; font-size: 12px; line-height: 1.6;">
                You are receiving this email because you asked Star Spark to keep your GitHub stars aglow.<br />
                Want to dial things differently? <a href="%s/settings" style="color: #38bdf8;">Update your cadence</a> or <a href="%s/account" style="color: #38bdf8;">snooze Star Spark</a> anytime.
              </td>
            </tr>
          </table>
        </td>
      </tr>
    </table>
  </body>
</html>`, content, appBaseURL, appBaseURL)
}
