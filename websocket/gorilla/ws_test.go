package gorilla

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/go-gotop/rtbridge/websocket"
	mock_websocket "github.com/go-gotop/rtbridge/websocket/mock"
)

func TestSuite(t *testing.T) {
	suite.Run(t, new(websocketTestSuite))
}

type websocketTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller
	mws  *mock_websocket.MockWebSocketConn
	ws   *GorillaWebsocket
}

func (w *websocketTestSuite) SetupTest() {
	w.ctrl = gomock.NewController(w.T())
	w.mws = mock_websocket.NewMockWebSocketConn(w.ctrl)
	w.ws = NewGorillaWebsocket(w.mws, &websocket.WebsocketConfig{}, nil)
}

func (w *websocketTestSuite) TearDownTest() {
	w.ctrl.Finish()
}

func (w *websocketTestSuite) TestConnect() {
	block := make(chan struct{})
	received := make(chan []byte, 1)
	var events []string

	w.mws.EXPECT().Dial("test", gomock.Any()).Return(nil)
	gomock.InOrder(
		w.mws.EXPECT().ReadMessage().Return(1, []byte("message 1"), nil),
		w.mws.EXPECT().ReadMessage().DoAndReturn(func() (int, []byte, error) {
			<-block
			return 0, nil, errors.New("closed")
		}),
	)
	w.mws.EXPECT().Close().DoAndReturn(func() error {
		close(block)
		return nil
	})

	err := w.ws.Connect(&websocket.WebsocketRequest{
		Endpoint:          "test",
		ID:                "test",
		ConnectingHandler: func(id string) { events = append(events, "connecting") },
		ConnectedHandler:  func(id string) { events = append(events, "connected") },
		MessageHandler: func(message []byte) {
			received <- message
		},
		ErrorHandler: func(id string, err error) {
			events = append(events, "error")
		},
	})
	w.Require().NoError(err)

	select {
	case msg := <-received:
		w.Equal("message 1", string(msg))
	case <-time.After(time.Second):
		w.Fail("no message")
	}
	w.True(w.ws.IsConnected())
	w.Equal("test", w.ws.ID())
	w.Equal([]string{"connecting", "connected"}, events)

	// 主动断开不触发 ErrorHandler
	w.Require().NoError(w.ws.Disconnect())
	w.False(w.ws.IsConnected())
	w.Equal([]string{"connecting", "connected"}, events)
}

func (w *websocketTestSuite) TestReadErrorCallsErrorHandler() {
	errCh := make(chan error, 1)
	w.mws.EXPECT().Dial(gomock.Any(), gomock.Any()).Return(nil)
	w.mws.EXPECT().ReadMessage().Return(0, nil, errors.New("eof"))

	err := w.ws.Connect(&websocket.WebsocketRequest{
		Endpoint:     "test",
		ID:           "test",
		ErrorHandler: func(id string, err error) { errCh <- err },
	})
	w.Require().NoError(err)

	select {
	case err := <-errCh:
		w.EqualError(err, "eof")
	case <-time.After(time.Second):
		w.Fail("no error callback")
	}
	w.Eventually(func() bool { return !w.ws.IsConnected() }, time.Second, 5*time.Millisecond)
}

func (w *websocketTestSuite) TestDialFailure() {
	var gotErr error
	w.mws.EXPECT().Dial(gomock.Any(), gomock.Any()).Return(errors.New("refused"))

	err := w.ws.Connect(&websocket.WebsocketRequest{
		Endpoint:     "test",
		ID:           "test",
		ErrorHandler: func(id string, err error) { gotErr = err },
	})
	w.EqualError(err, "refused")
	w.EqualError(gotErr, "refused")
	w.False(w.ws.IsConnected())

	// 拨号失败后可以重连
	w.mws.EXPECT().Close().Return(nil)
	w.mws.EXPECT().Dial(gomock.Any(), gomock.Any()).Return(errors.New("refused again"))
	w.EqualError(w.ws.Reconnect(), "refused again")
}

func (w *websocketTestSuite) TestDisconnect() {
	// 未连接时断开不会阻塞
	w.mws.EXPECT().Close().Return(nil)
	w.NoError(w.ws.Disconnect())
	w.False(w.ws.IsConnected())
}
