package service

import (
	"errors"

	"pikapi/internal/modules/battle/engine"
	"pikapi/internal/pkg/xerrors"
)

// mapEngineError 把引擎错误转换成对外的错误码
func mapEngineError(err error, action string) *xerrors.AppError {
	var appErr *xerrors.AppError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, engine.ErrInvalidAction):
		return xerrors.NewInvalidActionError(action, err.Error())
	case errors.Is(err, engine.ErrEmptyRoster):
		return xerrors.NewWithError(xerrors.CodeCatalogInconsistency, "队伍中没有可用的宝可梦", err).
			WithOperation(action)
	default:
		return xerrors.NewWithError(xerrors.CodeDatabaseError, "读取图鉴失败", err).
			WithOperation(action)
	}
}

func storeError(err error, operation string) *xerrors.AppError {
	return xerrors.Wrap(err, xerrors.CodeDatabaseError, "存储访问失败").WithOperation(operation)
}
