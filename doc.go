/*
go-humantrack performs real-time human detection and tracking over an image
or video stream.  A YOLOv4 network run through the OpenCV DNN module proposes
person bounding boxes every Nth frame, and one kernelized correlation filter
(KCF) tracker per detected person carries the boxes across the frames in
between, amortizing the cost of the detector.

The root package wraps the DNN inference runtime and label loading, and can
pin the process to a set of CPU cores.  The
subpackages provide the pipeline pieces:

  - preprocess: normalization of frames into network input blobs
  - postprocess: YOLOv4 output decoding, person filtering and NMS
  - detector: the Detector combining inference, decoding and annotation
  - tracker: the Set of single object trackers and box geometry
  - render: annotation of detection and tracker boxes
  - pipeline: the detect-then-track frame loop
  - stream: image/video sources, sinks and display
  - config, poselog: configuration file and pose export

See the example/humantrack directory for the command line program.
*/
package humantrack
