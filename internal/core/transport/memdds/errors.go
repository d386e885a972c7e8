package memdds

import (
	"errors"
	"fmt"

	"github.com/dep2p/go-dep2p-graph/pkg/types"
)

var (
	// ErrPreconditionNotMet 参与者仍有本地实体
	ErrPreconditionNotMet = fmt.Errorf("precondition not met: %w", types.ErrTeardownBlocked)

	// ErrForeignParticipant 参与者不属于本工厂
	ErrForeignParticipant = fmt.Errorf("%w: participant not created by this factory", types.ErrInvalidArgument)

	// ErrUnknownEntity 实体不存在或不属于该参与者
	ErrUnknownEntity = fmt.Errorf("%w: unknown entity", types.ErrInvalidArgument)

	// ErrNotLoaned 样本序列未处于借出状态
	ErrNotLoaned = fmt.Errorf("%w: sample sequence not loaned", types.ErrInvalidArgument)

	// ErrInjected 注入的故障
	ErrInjected = errors.New("memdds: injected failure")
)
