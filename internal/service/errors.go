// 文件路径: internal/service/errors.go
// 模块说明: 这是 internal 模块里的 service 错误定义逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package service

import (
	"errors"
	"fmt"

	"github.com/silverlode/fleetpanel/internal/repository"
)

// 服务层统一的哨兵错误，API 与 CLI 依赖 errors.Is 来决定提示语与返回码。
var (
	ErrNotFound        = errors.New("resource not found / 未找到资源")
	ErrConflict        = errors.New("resource conflict / 资源冲突")
	ErrForbidden       = errors.New("operation forbidden / 没有权限执行该操作")
	ErrInvalidArgument = errors.New("invalid argument / 参数无效")
)

// StorageError 包装仓储层的非业务错误，保留出错的操作名方便排查。
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure in %s: %v / 存储层在 %s 操作时出错", e.Op, e.Err, e.Op)
}

func (e *StorageError) Unwrap() error { return e.Err }

// mapRepoError 把仓储错误翻译成服务层哨兵错误，其余情况包装成 StorageError。
func mapRepoError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrConflict):
		return ErrConflict
	default:
		return &StorageError{Op: op, Err: err}
	}
}
