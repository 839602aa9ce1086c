package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrOverlapConstraint 排他约束冲突：同一委托人存在时间重叠的未结束代理
var ErrOverlapConstraint = errors.New("存在时间重叠的未结束代理")

// ErrDuplicateRecord 唯一约束冲突
var ErrDuplicateRecord = errors.New("记录已存在")
