package apperr

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"google.golang.org/api/googleapi"
)

// IsDependencyError 判断未标注类别的错误是否来自外部依赖
func IsDependencyError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	// 数据库错误
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return true
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return true
	}

	// Gmail API 错误
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return true
	}

	// 网络错误
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}

	errStr := err.Error()
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "timeout") {
		return true
	}

	return false
}
