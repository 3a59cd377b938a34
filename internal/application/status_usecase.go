package application

import (
	"context"
	"fmt"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/facultyhub/faculty-status/internal/domain/entity"
	"github.com/facultyhub/faculty-status/internal/ports/in"
	"github.com/facultyhub/faculty-status/internal/ports/out"
	"github.com/facultyhub/faculty-status/pkg/zlog"
)

// keyedMutex 按教师工号加锁，不同教师互不影响
type keyedMutex struct {
	locks sync.Map // facultyID -> *sync.Mutex
}

func (k *keyedMutex) lock(key string) func() {
	v, _ := k.locks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// StatusUseCaseImpl 状态用例实现
// broadcaster 与 eventPublisher 都允许为 nil，便于裁剪部署和测试
type StatusUseCaseImpl struct {
	statusRepo     out.StatusRepository
	facultyRepo    out.FacultyRepository
	broadcaster    out.StatusBroadcaster
	eventPublisher out.EventPublisher
	entityLocks    keyedMutex
}

// NewStatusUseCase 创建状态用例
func NewStatusUseCase(
	statusRepo out.StatusRepository,
	facultyRepo out.FacultyRepository,
	broadcaster out.StatusBroadcaster,
	eventPublisher out.EventPublisher,
) in.StatusUseCase {
	return &StatusUseCaseImpl{
		statusRepo:     statusRepo,
		facultyRepo:    facultyRepo,
		broadcaster:    broadcaster,
		eventPublisher: eventPublisher,
	}
}

// UpdateStatus 鉴权 -> 校验 -> 落库 -> 广播
func (uc *StatusUseCaseImpl) UpdateStatus(ctx context.Context, callerID string, req *in.UpdateStatusRequest) (*entity.StatusRecord, error) {
	// 只允许本人更新，没有管理员越权通道
	if callerID == "" || callerID != req.FacultyID {
		return nil, entity.ErrForbidden
	}

	code, err := entity.ParseStatusCode(req.Code)
	if err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(req.Note) > entity.MaxNoteLength {
		return nil, fmt.Errorf("%w: %d > %d", entity.ErrNoteTooLong, utf8.RuneCountInString(req.Note), entity.MaxNoteLength)
	}

	// 写之前确认教师存在，档案由目录协作方维护
	faculty, err := uc.facultyRepo.GetByID(ctx, req.FacultyID)
	if err != nil {
		return nil, fmt.Errorf("%w: query faculty: %v", entity.ErrStorageUnavailable, err)
	}
	if faculty == nil {
		return nil, entity.ErrFacultyNotFound
	}

	// 同一教师的提交和扇出在锁内串行：广播顺序必须等于提交顺序，
	// updated_at 在锁内取值也因此单调不减；不同教师各持各的锁，照常并发
	unlock := uc.entityLocks.lock(req.FacultyID)
	defer unlock()

	rec, err := uc.statusRepo.Upsert(ctx, req.FacultyID, code, req.Note)
	if err != nil {
		// 落库失败则整个操作失败，绝不广播未提交的状态
		return nil, fmt.Errorf("%w: upsert status: %v", entity.ErrStorageUnavailable, err)
	}

	uc.fanout(ctx, rec)
	return rec, nil
}

// fanout 提交成功后的扇出，任何失败只记日志
func (uc *StatusUseCaseImpl) fanout(ctx context.Context, rec *entity.StatusRecord) {
	event := entity.NewStatusEvent(rec)

	if uc.broadcaster != nil {
		uc.broadcaster.Broadcast(ctx, event)
	}

	if uc.eventPublisher != nil {
		if err := uc.eventPublisher.PublishStatusChanged(ctx, event); err != nil {
			zlog.C(ctx).Warn("publish status event failed",
				zap.String("faculty_id", rec.FacultyID),
				zap.Error(err))
		}
	}
}

// GetStatus 读路径：仓储读取加编码装饰，不经过广播
func (uc *StatusUseCaseImpl) GetStatus(ctx context.Context, facultyID string) (*entity.FacultyStatus, error) {
	faculty, err := uc.facultyRepo.GetByID(ctx, facultyID)
	if err != nil {
		return nil, fmt.Errorf("%w: query faculty: %v", entity.ErrStorageUnavailable, err)
	}
	if faculty == nil {
		return nil, entity.ErrFacultyNotFound
	}

	rec, err := uc.statusRepo.Get(ctx, facultyID)
	if err != nil {
		return nil, fmt.Errorf("%w: query status: %v", entity.ErrStorageUnavailable, err)
	}
	if rec == nil {
		return nil, entity.ErrFacultyNotFound
	}

	return &entity.FacultyStatus{Faculty: faculty, Status: rec}, nil
}

// ListStatuses 目录视图
func (uc *StatusUseCaseImpl) ListStatuses(ctx context.Context) ([]*entity.FacultyStatus, error) {
	list, err := uc.facultyRepo.ListWithStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list statuses: %v", entity.ErrStorageUnavailable, err)
	}
	return list, nil
}

// BulkUpdate 逐条走完整的单条更新路径，鉴权不放松
func (uc *StatusUseCaseImpl) BulkUpdate(ctx context.Context, callerID string, items []*in.UpdateStatusRequest) []*in.BulkUpdateResult {
	results := make([]*in.BulkUpdateResult, 0, len(items))
	for _, item := range items {
		rec, err := uc.UpdateStatus(ctx, callerID, item)
		if err != nil {
			results = append(results, &in.BulkUpdateResult{
				FacultyID: item.FacultyID,
				Success:   false,
				Error:     err.Error(),
			})
			continue
		}
		results = append(results, &in.BulkUpdateResult{
			FacultyID: item.FacultyID,
			Success:   true,
			Record:    rec,
		})
	}
	return results
}
