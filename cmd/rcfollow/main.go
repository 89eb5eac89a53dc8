package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/swdee/go-rcfollow"
	"github.com/swdee/go-rcfollow/config"
	"github.com/swdee/go-rcfollow/control"
	"github.com/swdee/go-rcfollow/descriptor"
	"github.com/swdee/go-rcfollow/detect"
	"github.com/swdee/go-rcfollow/dispatch"
	"github.com/swdee/go-rcfollow/internal/timeutil"
	"github.com/swdee/go-rcfollow/journal"
	"github.com/swdee/go-rcfollow/logging"
	"github.com/swdee/go-rcfollow/operator"
	"github.com/swdee/go-rcfollow/render"
	"github.com/swdee/go-rcfollow/tracker"
	"github.com/swdee/go-rcfollow/vehicle"
	"gocv.io/x/gocv"
)

// Flags holds the command line settings
type Flags struct {
	ConfigFile string
	Video      string
	Detections string
	Show       bool
	Out        string
}

func main() {

	flags := Flags{}

	flag.StringVar(&flags.ConfigFile, "config", config.DefaultPath, "YAML configuration file")
	flag.StringVar(&flags.Video, "video", "0", "Video file or camera device index")
	flag.StringVar(&flags.Detections, "detections", "", "JSON Lines person detections for the video")
	flag.BoolVar(&flags.Show, "show", false, "Display annotated frames in a window")
	flag.StringVar(&flags.Out, "out", "", "Write annotated video to this file")

	flag.Parse()

	bootLog, err := logging.New(logging.Options{})

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(flags.ConfigFile, bootLog)

	if err != nil {
		bootLog.WithError(err).Fatal("Error loading configuration")
	}

	log, err := logging.New(logging.Options{
		Level: cfg.Logging.Level,
		File:  cfg.Logging.File,
	})

	if err != nil {
		bootLog.WithError(err).Fatal("Error creating logger")
	}

	if err := run(cfg, flags, log); err != nil {
		log.WithError(err).Fatal("Follower stopped")
	}
}

// run executes the vision loop until the video ends, the user quits or a
// signal is received.  The vehicle is always sent an emergency stop on exit.
func run(cfg config.Config, flags Flags, log *logrus.Logger) error {

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if flags.Detections == "" {
		return errors.New("a -detections file is required")
	}

	detector, err := detect.Open(flags.Detections)

	if err != nil {
		return err
	}

	log.WithField("frames", detector.Len()).Info("Loaded detections")

	var jrnl *journal.Journal

	if cfg.Journal.Path != "" {
		jrnl, err = journal.Open(cfg.Journal.Path)

		if err != nil {
			return err
		}

		defer jrnl.Close()

		log.WithField("session", jrnl.SessionID()).Info("Command journal opened")
	}

	car := vehicle.NewClient(vehicle.Options{
		IP:                cfg.Car.IP,
		Port:              cfg.Car.Port,
		RequestTimeout:    cfg.Controller.RequestTimeout,
		ConnectionTimeout: cfg.Controller.ConnectionTimeout,
	}, log)

	carControl := false

	if cfg.System.EnableCarControl {
		if err := car.Ping(ctx); err != nil {
			log.WithError(err).Warn("Vehicle not reachable, running without car control")
		} else {
			carControl = true
		}
	}

	var dispatcher *dispatch.Dispatcher

	if carControl {
		opts := []dispatch.Option{
			dispatch.WithPolicy(dispatch.Drive, dispatch.Policy{
				Cooldown: cfg.Controller.DriveCooldown,
				Mode:     dispatch.DropDuringCooldown,
			}),
			dispatch.WithPolicy(dispatch.Steering, dispatch.Policy{
				Cooldown: cfg.Controller.SteeringCooldown,
				Mode:     dispatch.DedupOnly,
			}),
		}

		if jrnl != nil {
			opts = append(opts, dispatch.WithRecorder(jrnl))
		}

		dispatcher = dispatch.New(car, log, opts...)

		// start from a known stopped state
		if err := dispatcher.EmergencyStop(ctx); err != nil {
			log.WithError(err).Warn("Initial stop failed")
		}
	}

	pipeline, err := rcfollow.New(pipelineOptions(cfg, carControl), detector,
		dispatcher, timeutil.RealClock{}, log)

	if err != nil {
		return err
	}

	defer func() {
		if !cfg.System.EmergencyStopOnExit {
			return
		}

		// the run context may already be cancelled by a signal
		stopCtx, cancel := context.WithTimeout(context.Background(), 2*cfg.Controller.RequestTimeout)
		defer cancel()

		pipeline.Close(stopCtx)
	}()

	if cfg.Operator.Enabled {
		var reader operator.JournalReader

		if jrnl != nil {
			reader = jrnl
		}

		srv := operator.New(operator.Options{
			RatePerSecond: cfg.Operator.RatePerSecond,
			Burst:         cfg.Operator.Burst,
		}, reader, log)

		pipeline.Attach(srv.Actions(), srv)

		go func() {
			if err := srv.Listen(cfg.Operator.Listen); err != nil {
				log.WithError(err).Error("Operator console stopped")
			}
		}()

		defer srv.Shutdown(2 * time.Second)
	}

	return loop(ctx, cfg, flags, pipeline, log)
}

func pipelineOptions(cfg config.Config, carControl bool) rcfollow.Options {
	return rcfollow.Options{
		PersonConfidence:   cfg.Vision.HandDetection.PersonConfidenceThreshold,
		KeyPointConfidence: cfg.Vision.HandDetection.ConfidenceThreshold,
		Tracker: tracker.Params{
			AssociateParams: tracker.AssociateParams{
				IoUWeight:     cfg.Tracker.IoUWeight,
				FeatureWeight: cfg.Tracker.FeatureWeight,
				MatchThresh:   cfg.Tracker.MatchThreshold,
			},
			MinHits:   cfg.Tracker.MinHits,
			MaxAge:    cfg.Tracker.MaxAge,
			TrailSize: cfg.Tracker.TrailSize,
		},
		Descriptor: descriptor.DefaultParams(),
		Control: control.Params{
			Threshold:    cfg.Tracking.Threshold,
			Enabled:      cfg.Tracking.Enabled,
			SoftTracking: cfg.Tracking.SoftTracking,
		},
		LockTimeout: cfg.Lock.DisappearanceTimeout,
		CarControl:  carControl,
	}
}

// openVideo opens a camera when source is a device index, otherwise a file
func openVideo(source string, cfg config.Config) (*gocv.VideoCapture, error) {

	if idx, err := strconv.Atoi(source); err == nil {
		video, err := gocv.OpenVideoCapture(idx)

		if err != nil {
			return nil, fmt.Errorf("error opening camera %d: %w", idx, err)
		}

		video.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Vision.Camera.Width))
		video.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Vision.Camera.Height))

		return video, nil
	}

	video, err := gocv.VideoCaptureFile(source)

	if err != nil {
		return nil, fmt.Errorf("error opening video %s: %w", source, err)
	}

	return video, nil
}

// loop reads, processes and renders frames.  Detector coordinates refer to
// the frame after the optional horizontal flip.
func loop(ctx context.Context, cfg config.Config, flags Flags,
	pipeline *rcfollow.Pipeline, log *logrus.Logger) error {

	video, err := openVideo(flags.Video, cfg)

	if err != nil {
		return err
	}

	defer video.Close()

	var window *gocv.Window

	if flags.Show {
		window = gocv.NewWindow("rcfollow")
		defer window.Close()
	}

	var writer *gocv.VideoWriter

	img := gocv.NewMat()
	defer img.Close()

	font := render.DefaultFont()
	statusFont := render.StatusFont()
	trailStyle := render.DefaultTrailStyle()

	for {
		select {
		case <-ctx.Done():
			log.Info("Signal received, shutting down")
			return nil
		default:
		}

		if ok := video.Read(&img); !ok {
			log.Info("End of video")
			return nil
		}

		if img.Empty() {
			continue
		}

		if cfg.Vision.Camera.FlipHorizontal {
			gocv.Flip(img, &img, 1)
		}

		frame, err := img.ToImage()

		if err != nil {
			return fmt.Errorf("error converting frame: %w", err)
		}

		res, err := pipeline.Process(ctx, frame)

		if err != nil {
			log.WithError(err).Warn("Frame skipped")
			continue
		}

		if cfg.System.EnableDebugOutput {
			log.WithFields(logrus.Fields{
				"frame":     res.Frame,
				"confirmed": len(res.Confirmed),
				"lock":      res.Lock.State.String(),
				"steering":  res.Decision.Steering.String(),
				"drive":     res.Decision.Drive.String(),
			}).Debug("Frame processed")
		}

		if window == nil && flags.Out == "" {
			continue
		}

		gestureText := "No hand gesture - STOPPED"
		if res.Target != nil && res.Target.GetAge() == 0 {
			gestureText = control.StatusText(res.Target.GetGesture())
		}

		render.CenterBand(&img, pipeline.Controller().Params().Threshold)
		render.Trail(&img, res.Confirmed, res.Lock.TrackID, trailStyle)
		render.TrackBoxes(&img, res.Confirmed, res.Lock.TrackID, font, 2)
		render.PoseKeyPoints(&img, res.Confirmed, cfg.Vision.HandDetection.ConfidenceThreshold, 2)
		render.Status(&img, gestureText, res.Lock.State.String(), res.Lock.TrackID,
			res.Decision.Steering.Action(), statusFont)

		if flags.Out != "" {
			if writer == nil {
				fps := video.Get(gocv.VideoCaptureFPS)
				if fps <= 0 {
					fps = 30
				}

				writer, err = gocv.VideoWriterFile(flags.Out, "MJPG", fps, img.Cols(), img.Rows(), true)

				if err != nil {
					return fmt.Errorf("error creating video writer: %w", err)
				}

				defer writer.Close()
			}

			if err := writer.Write(img); err != nil {
				return fmt.Errorf("error writing frame: %w", err)
			}
		}

		if window != nil {
			window.IMShow(img)

			if window.WaitKey(1) == 'q' {
				log.Info("User requested quit")
				return nil
			}
		}
	}
}
