package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lolo262652/tasknot/internal/constants"
	"github.com/lolo262652/tasknot/internal/database"
	"github.com/lolo262652/tasknot/internal/models"
	"github.com/lolo262652/tasknot/internal/realtime"
	"github.com/lolo262652/tasknot/internal/repository"
	"github.com/lolo262652/tasknot/internal/services"
)

// TaskHandlerTestSuite defines the test suite for TaskHandler
type TaskHandlerTestSuite struct {
	suite.Suite
	db      *gorm.DB
	hub     *realtime.Hub
	handler *TaskHandler
	router  *gin.Engine
	userID  string
}

// SetupTest runs before each test
func (suite *TaskHandlerTestSuite) SetupTest() {
	var err error

	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)

	err = suite.db.AutoMigrate(
		&models.Profile{},
		&models.Task{},
		&models.TaskHistory{},
		&models.TaskDocument{},
	)
	suite.Require().NoError(err)

	database.SetDB(suite.db)

	suite.hub = realtime.NewHub()
	taskRepo := repository.NewTaskRepository(suite.db)
	docRepo := repository.NewDocumentRepository(suite.db)
	taskService := services.NewTaskService(taskRepo, docRepo, suite.hub)
	suite.handler = NewTaskHandler(taskService)

	suite.userID = "user-1"

	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.router.Use(func(c *gin.Context) {
		c.Set(constants.ContextKeyUserID, suite.userID)
		c.Next()
	})
	suite.router.GET("/api/tasks", suite.handler.ListTasks)
	suite.router.POST("/api/tasks", suite.handler.CreateTask)
	suite.router.PATCH("/api/tasks/:id", suite.handler.UpdateTask)
	suite.router.DELETE("/api/tasks/:id", suite.handler.DeleteTask)
}

// TearDownTest runs after each test
func (suite *TaskHandlerTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *TaskHandlerTestSuite) createTestTask(title string, status models.TaskStatus, createdAt time.Time) *models.Task {
	task := &models.Task{
		Title:     title,
		Status:    status,
		UserID:    suite.userID,
		CreatedAt: createdAt,
	}
	suite.Require().NoError(suite.db.Create(task).Error)
	return task
}

func (suite *TaskHandlerTestSuite) request(method, url string, payload any) *httptest.ResponseRecorder {
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		suite.Require().NoError(err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, url, body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *TaskHandlerTestSuite) TestCreateTask() {
	sub := suite.hub.Subscribe(realtime.TableTasks, realtime.Filter{})
	defer suite.hub.Unsubscribe(sub)

	w := suite.request(http.MethodPost, "/api/tasks", map[string]any{
		"title": "New Task",
	})

	suite.Equal(http.StatusCreated, w.Code)

	var task models.Task
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &task))
	suite.NotEmpty(task.ID)
	suite.Equal("New Task", task.Title)
	suite.Equal(models.TaskStatusTodo, task.Status)
	suite.Equal(models.TaskPriorityMedium, task.Priority)
	suite.Equal(suite.userID, task.UserID)

	select {
	case ev := <-sub.C:
		suite.Equal(realtime.ActionInsert, ev.Action)
		var row models.Task
		suite.Require().NoError(ev.DecodeNew(&row))
		suite.Equal(task.ID, row.ID)
	default:
		suite.Fail("expected an insert event on the change feed")
	}
}

func (suite *TaskHandlerTestSuite) TestCreateTaskMissingTitle() {
	w := suite.request(http.MethodPost, "/api/tasks", map[string]any{
		"description": "no title here",
	})
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *TaskHandlerTestSuite) TestCreateTaskInvalidStatus() {
	w := suite.request(http.MethodPost, "/api/tasks", map[string]any{
		"title":  "Bad Status",
		"status": "archived",
	})
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *TaskHandlerTestSuite) TestListTasksNewestFirst() {
	base := time.Now().Add(-time.Hour)
	suite.createTestTask("older", models.TaskStatusTodo, base)
	suite.createTestTask("newer", models.TaskStatusDone, base.Add(time.Minute))

	w := suite.request(http.MethodGet, "/api/tasks", nil)
	suite.Equal(http.StatusOK, w.Code)

	var response struct {
		Tasks []models.Task `json:"tasks"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	suite.Require().Len(response.Tasks, 2)
	suite.Equal("newer", response.Tasks[0].Title)
	suite.Equal("older", response.Tasks[1].Title)
}

func (suite *TaskHandlerTestSuite) TestUpdateTaskPartial() {
	task := suite.createTestTask("keep my status", models.TaskStatusInProgress, time.Now())

	w := suite.request(http.MethodPatch, "/api/tasks/"+task.ID, map[string]any{
		"title": "renamed",
	})
	suite.Equal(http.StatusOK, w.Code)

	var updated models.Task
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &updated))
	suite.Equal("renamed", updated.Title)
	suite.Equal(models.TaskStatusInProgress, updated.Status, "untouched fields survive a partial update")
}

func (suite *TaskHandlerTestSuite) TestUpdateTaskStatus() {
	sub := suite.hub.Subscribe(realtime.TableTasks, realtime.Filter{})
	defer suite.hub.Unsubscribe(sub)

	task := suite.createTestTask("move me", models.TaskStatusTodo, time.Now())

	w := suite.request(http.MethodPatch, "/api/tasks/"+task.ID, map[string]any{
		"status": "done",
	})
	suite.Equal(http.StatusOK, w.Code)

	var updated models.Task
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &updated))
	suite.Equal(models.TaskStatusDone, updated.Status)

	select {
	case ev := <-sub.C:
		suite.Equal(realtime.ActionUpdate, ev.Action)
		var oldRow models.Task
		suite.Require().NoError(ev.DecodeOld(&oldRow))
		suite.Equal(models.TaskStatusTodo, oldRow.Status, "update events carry the previous row")
	default:
		suite.Fail("expected an update event on the change feed")
	}
}

func (suite *TaskHandlerTestSuite) TestUpdateTaskClearsDescription() {
	task := suite.createTestTask("with description", models.TaskStatusTodo, time.Now())
	desc := "soon to be gone"
	suite.Require().NoError(suite.db.Model(task).Update("description", &desc).Error)

	w := suite.request(http.MethodPatch, "/api/tasks/"+task.ID, map[string]any{
		"description": nil,
	})
	suite.Equal(http.StatusOK, w.Code)

	var updated models.Task
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &updated))
	suite.Nil(updated.Description, "an explicit null clears the field")
}

func (suite *TaskHandlerTestSuite) TestUpdateTaskInvalidStatus() {
	task := suite.createTestTask("bad transition", models.TaskStatusTodo, time.Now())

	w := suite.request(http.MethodPatch, "/api/tasks/"+task.ID, map[string]any{
		"status": "archived",
	})
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *TaskHandlerTestSuite) TestUpdateTaskNotFound() {
	w := suite.request(http.MethodPatch, "/api/tasks/no-such-id", map[string]any{
		"title": "ghost",
	})
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *TaskHandlerTestSuite) TestSoftDeleteKeepsRow() {
	task := suite.createTestTask("to the bin", models.TaskStatusDone, time.Now())

	w := suite.request(http.MethodPatch, "/api/tasks/"+task.ID, map[string]any{
		"status": "deleted",
	})
	suite.Equal(http.StatusOK, w.Code)

	var stored models.Task
	suite.Require().NoError(suite.db.First(&stored, "id = ?", task.ID).Error)
	suite.Equal(models.TaskStatusDeleted, stored.Status, "soft delete is a status, not a removal")
}

func (suite *TaskHandlerTestSuite) TestDeleteTaskRemovesRowAndDocuments() {
	sub := suite.hub.Subscribe(realtime.TableTasks, realtime.Filter{})
	defer suite.hub.Unsubscribe(sub)

	task := suite.createTestTask("hard delete", models.TaskStatusDeleted, time.Now())
	doc := &models.TaskDocument{
		TaskID:     task.ID,
		Name:       "attachment.pdf",
		FilePath:   "task-documents/" + task.ID + "/aa.pdf",
		UploadedBy: suite.userID,
	}
	suite.Require().NoError(suite.db.Create(doc).Error)

	w := suite.request(http.MethodDelete, "/api/tasks/"+task.ID, nil)
	suite.Equal(http.StatusOK, w.Code)

	var count int64
	suite.db.Model(&models.Task{}).Where("id = ?", task.ID).Count(&count)
	suite.Equal(int64(0), count)

	suite.db.Model(&models.TaskDocument{}).Where("task_id = ?", task.ID).Count(&count)
	suite.Equal(int64(0), count, "document records go with the task")

	select {
	case ev := <-sub.C:
		suite.Equal(realtime.ActionDelete, ev.Action)
		var oldRow models.Task
		suite.Require().NoError(ev.DecodeOld(&oldRow))
		suite.Equal(task.ID, oldRow.ID)
	default:
		suite.Fail("expected a delete event on the change feed")
	}
}

func (suite *TaskHandlerTestSuite) TestDeleteTaskNotFound() {
	w := suite.request(http.MethodDelete, "/api/tasks/no-such-id", nil)
	suite.Equal(http.StatusNotFound, w.Code)
}

func TestTaskHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(TaskHandlerTestSuite))
}
