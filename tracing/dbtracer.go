package tracing

import (
	"sync"

	"github.com/sarchlab/fairarb/datarecording"
)

// ServiceTable is the table DBTracer writes into.
const ServiceTable = "services"

// ServiceRecord is one completed service as stored by the database tracers.
type ServiceRecord struct {
	ID          string  `bson:"_id"`
	Location    string  `bson:"location"`
	Client      int     `bson:"client"`
	AdmitStep   uint64  `bson:"admit_step"`
	GrantStep   uint64  `bson:"grant_step"`
	ReleaseStep uint64  `bson:"release_step"`
	Wait        uint64  `bson:"wait"`
	Hold        uint64  `bson:"hold"`
	StartTime   float64 `bson:"start_time"`
	EndTime     float64 `bson:"end_time"`
}

// ServiceRecordOf converts an ended task into a record. Tasks that were never
// granted have no record.
func ServiceRecordOf(task Task) (ServiceRecord, bool) {
	grantStep, granted := task.GrantStep()
	if !granted {
		return ServiceRecord{}, false
	}

	return ServiceRecord{
		ID:          task.ID,
		Location:    task.Where,
		Client:      task.Client,
		AdmitStep:   task.StartStep,
		GrantStep:   grantStep,
		ReleaseStep: task.EndStep,
		Wait:        grantStep - task.StartStep,
		Hold:        task.EndStep - grantStep,
		StartTime:   task.StartTime,
		EndTime:     task.EndTime,
	}, true
}

// DBTracer stores every completed service into a DataRecorder.
type DBTracer struct {
	lock      sync.Mutex
	backend   datarecording.DataRecorder
	filter    TaskFilter
	createTbl sync.Once
	count     int
}

// NewDBTracer creates a tracer writing into backend.
func NewDBTracer(
	backend datarecording.DataRecorder,
	filter TaskFilter,
) *DBTracer {
	return &DBTracer{
		backend: backend,
		filter:  filter,
	}
}

// StartTask does nothing; services are written when they end.
func (t *DBTracer) StartTask(_ Task) {}

// StepTask does nothing; services are written when they end.
func (t *DBTracer) StepTask(_ Task) {}

// EndTask writes the service.
func (t *DBTracer) EndTask(task Task) {
	if !t.filter(task) {
		return
	}

	record, ok := ServiceRecordOf(task)
	if !ok {
		return
	}

	t.createTbl.Do(func() {
		t.backend.CreateTable(ServiceTable, ServiceRecord{})
	})

	t.lock.Lock()
	t.count++
	t.lock.Unlock()

	t.backend.InsertData(ServiceTable, record)
}

// Count returns the number of services written.
func (t *DBTracer) Count() int {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.count
}

// Flush pushes buffered rows to the database.
func (t *DBTracer) Flush() {
	t.backend.Flush()
}
