package orm

import "github.com/coderi421/crudx/orm/internal/errs"

// 将内部的 sentinel error 暴露出去
var (
	// ErrNoRows 代表没有找到数据
	ErrNoRows             = errs.ErrNoRows
	ErrPointerOnly        = errs.ErrPointerOnly
	ErrNoKeyField         = errs.ErrNoKeyField
	ErrMultipleKeyFields  = errs.ErrMultipleKeyFields
	ErrDeleteWithoutWhere = errs.ErrDeleteWithoutWhere
	ErrInvalidPageNumber  = errs.ErrInvalidPageNumber
	ErrInvalidRowsPerPage = errs.ErrInvalidRowsPerPage
	ErrPagingUnsupported  = errs.ErrPagingUnsupported
	// ErrUnsupportedKeyType 用 errors.Is 判断
	ErrUnsupportedKeyType = errs.ErrUnsupportedKeyType
	ErrNoIdentityReturned = errs.ErrNoIdentityReturned
	ErrNoUpdatedColumns   = errs.ErrNoUpdatedColumns
	ErrNoInsertedColumns  = errs.ErrNoInsertedColumns
	ErrNilFilter          = errs.ErrNilFilter
	// ErrNilEntity 更新或者删除的实体是 nil
	ErrNilEntity         = errs.ErrNilEntity
	ErrUnsupportedFilter = errs.ErrUnsupportedFilter
)
